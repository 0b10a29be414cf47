package residency

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
)

// TenantFilter defines filtering options for tenant queries
type TenantFilter struct {
	shared.Filter
	RoomNumber string        // Exact room match
	Status     *TenantStatus // Filter by status
}

// TenantRepository is the tenant store. Listing methods that feed billing
// return tenants in insertion order (created_at, then id).
type TenantRepository interface {
	// FindByID finds a tenant by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindAll lists tenants matching the filter with pagination
	FindAll(ctx context.Context, filter TenantFilter) ([]Tenant, error)

	// Count counts tenants matching the filter
	Count(ctx context.Context, filter TenantFilter) (int64, error)

	// FindActive returns every active tenant in insertion order
	FindActive(ctx context.Context) ([]*Tenant, error)

	// FindActiveByRoom returns the active tenants of a room in insertion order,
	// locking the rows when called inside a transaction
	FindActiveByRoom(ctx context.Context, roomNumber string) ([]*Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, tenant *Tenant) error

	// SaveWithLock updates a tenant only if its stored version matches
	SaveWithLock(ctx context.Context, tenant *Tenant) error
}

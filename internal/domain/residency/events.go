package residency

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
)

const (
	EventTypeTenantRegistered = "TenantRegistered"
	EventTypeTenantMoved      = "TenantMoved"

	aggregateTypeTenant = "Tenant"
)

// TenantRegisteredEvent is raised when a tenant is registered
type TenantRegisteredEvent struct {
	shared.BaseDomainEvent
	TenantID       uuid.UUID `json:"tenant_id"`
	Name           string    `json:"name"`
	RoomNumber     string    `json:"room_number"`
	MonthlyRent    int64     `json:"monthly_rent"`
	JoiningReading int64     `json:"joining_reading"`
}

// NewTenantRegisteredEvent creates a TenantRegisteredEvent
func NewTenantRegisteredEvent(t *Tenant, at time.Time) *TenantRegisteredEvent {
	return &TenantRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantRegistered, aggregateTypeTenant, t.ID, at),
		TenantID:        t.ID,
		Name:            t.Name,
		RoomNumber:      t.RoomNumber,
		MonthlyRent:     t.MonthlyRent,
		JoiningReading:  t.ElectricityJoiningReading,
	}
}

// TenantMovedEvent is raised when a tenant changes room
type TenantMovedEvent struct {
	shared.BaseDomainEvent
	TenantID       uuid.UUID `json:"tenant_id"`
	FromRoom       string    `json:"from_room"`
	ToRoom         string    `json:"to_room"`
	JoiningReading int64     `json:"joining_reading"`
}

// NewTenantMovedEvent creates a TenantMovedEvent
func NewTenantMovedEvent(t *Tenant, from string, at time.Time) *TenantMovedEvent {
	return &TenantMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantMoved, aggregateTypeTenant, t.ID, at),
		TenantID:        t.ID,
		FromRoom:        from,
		ToRoom:          t.RoomNumber,
		JoiningReading:  t.ElectricityJoiningReading,
	}
}

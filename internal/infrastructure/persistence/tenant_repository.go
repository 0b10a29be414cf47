package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/residency"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*residency.Tenant, error) {
	var model models.TenantModel
	if err := lockForUpdate(ctx, conn(ctx, r.db)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("tenant", id.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists tenants matching the filter
func (r *GormTenantRepository) FindAll(ctx context.Context, filter residency.TenantFilter) ([]residency.Tenant, error) {
	var rows []models.TenantModel
	q := r.applyFilter(conn(ctx, r.db).Model(&models.TenantModel{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, TenantSortFields, "created_at"))
	if filter.PageSize > 0 {
		q = q.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	tenants := make([]residency.Tenant, len(rows))
	for i := range rows {
		tenants[i] = *rows[i].ToDomain()
	}
	return tenants, nil
}

// Count counts tenants matching the filter
func (r *GormTenantRepository) Count(ctx context.Context, filter residency.TenantFilter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.TenantModel{}), filter).Count(&count).Error
	return count, err
}

// FindActive returns every active tenant in insertion order
func (r *GormTenantRepository) FindActive(ctx context.Context) ([]*residency.Tenant, error) {
	return r.findActive(ctx, conn(ctx, r.db))
}

// FindActiveByRoom returns a room's active tenants in insertion order, locked
// for update inside a transaction
func (r *GormTenantRepository) FindActiveByRoom(ctx context.Context, roomNumber string) ([]*residency.Tenant, error) {
	return r.findActive(ctx, lockForUpdate(ctx, conn(ctx, r.db)).Where("room_number = ?", roomNumber))
}

func (r *GormTenantRepository) findActive(ctx context.Context, q *gorm.DB) ([]*residency.Tenant, error) {
	var rows []models.TenantModel
	if err := q.Where("status = ?", residency.TenantStatusActive).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	tenants := make([]*residency.Tenant, len(rows))
	for i := range rows {
		tenants[i] = rows[i].ToDomain()
	}
	return tenants, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *residency.Tenant) error {
	return conn(ctx, r.db).Save(models.TenantModelFromDomain(tenant)).Error
}

// SaveWithLock updates a tenant that was mutated once since it was loaded,
// failing with a concurrency conflict if another writer got there first
func (r *GormTenantRepository) SaveWithLock(ctx context.Context, tenant *residency.Tenant) error {
	model := models.TenantModelFromDomain(tenant)
	result := conn(ctx, r.db).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", tenant.ID, tenant.Version-1).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormTenantRepository) applyFilter(q *gorm.DB, filter residency.TenantFilter) *gorm.DB {
	if filter.RoomNumber != "" {
		q = q.Where("room_number = ?", filter.RoomNumber)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`, like, like)
	}
	return q
}

var _ residency.TenantRepository = (*GormTenantRepository)(nil)

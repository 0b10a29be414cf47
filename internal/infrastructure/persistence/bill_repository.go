package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Bill, error) {
	var model models.BillModel
	if err := lockForUpdate(ctx, conn(ctx, r.db)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("bill", id.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenantAndMonth finds the bill of a tenant for a month
func (r *GormBillRepository) FindByTenantAndMonth(ctx context.Context, tenantID uuid.UUID, month ledger.BillingMonth) (*ledger.Bill, error) {
	var model models.BillModel
	err := lockForUpdate(ctx, conn(ctx, r.db)).
		Where("tenant_id = ? AND billing_month = ?", tenantID, month).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("bill", tenantID.String()+"/"+month.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists bills matching the filter
func (r *GormBillRepository) FindAll(ctx context.Context, filter ledger.BillFilter) ([]ledger.Bill, error) {
	var rows []models.BillModel
	q := r.applyFilter(conn(ctx, r.db).Model(&models.BillModel{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, BillSortFields, "created_at"))
	if filter.PageSize > 0 {
		q = q.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	bills := make([]ledger.Bill, len(rows))
	for i := range rows {
		bills[i] = *rows[i].ToDomain()
	}
	return bills, nil
}

// Count counts bills matching the filter
func (r *GormBillRepository) Count(ctx context.Context, filter ledger.BillFilter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.BillModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsForTenants reports whether any of the tenants already has a bill for month
func (r *GormBillRepository) ExistsForTenants(ctx context.Context, tenantIDs []uuid.UUID, month ledger.BillingMonth) (bool, error) {
	if len(tenantIDs) == 0 {
		return false, nil
	}
	var count int64
	err := conn(ctx, r.db).Model(&models.BillModel{}).
		Where("billing_month = ? AND tenant_id IN ?", month, tenantIDs).
		Count(&count).Error
	return count > 0, err
}

// FindOverdueCandidates returns outstanding bills whose due date is before asOf's day
func (r *GormBillRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]*ledger.Bill, error) {
	y, m, d := asOf.UTC().Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var rows []models.BillModel
	err := conn(ctx, r.db).
		Where("status IN ? AND due_date < ? AND balance_due > 0",
			[]ledger.BillStatus{ledger.BillStatusPending, ledger.BillStatusPartial}, cutoff).
		Order("due_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	bills := make([]*ledger.Bill, len(rows))
	for i := range rows {
		bills[i] = rows[i].ToDomain()
	}
	return bills, nil
}

// SaveBatch inserts new bills
func (r *GormBillRepository) SaveBatch(ctx context.Context, bills []*ledger.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	rows := make([]*models.BillModel, len(bills))
	for i, b := range bills {
		rows[i] = models.BillModelFromDomain(b)
	}
	if err := conn(ctx, r.db).Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock updates a bill that was mutated once since it was loaded
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *ledger.Bill) error {
	model := models.BillModelFromDomain(bill)
	result := conn(ctx, r.db).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteByMonth removes every bill of a month
func (r *GormBillRepository) DeleteByMonth(ctx context.Context, month ledger.BillingMonth) (int64, error) {
	result := conn(ctx, r.db).Where("billing_month = ?", month).Delete(&models.BillModel{})
	return result.RowsAffected, result.Error
}

type statusTotalsRow struct {
	Status      string
	Count       int64
	TotalAmount int64
	AmountPaid  int64
	Outstanding int64
}

// TotalsByStatus aggregates bills per status. An empty month covers all months.
func (r *GormBillRepository) TotalsByStatus(ctx context.Context, month ledger.BillingMonth) ([]ledger.StatusTotals, error) {
	var rows []statusTotalsRow
	q := conn(ctx, r.db).Model(&models.BillModel{}).
		Select(`status,
			COUNT(*) AS count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(amount_paid), 0) AS amount_paid,
			COALESCE(SUM(CASE WHEN balance_due > 0 THEN balance_due ELSE 0 END), 0) AS outstanding`)
	if month != "" {
		q = q.Where("billing_month = ?", month)
	}
	if err := q.Group("status").Order("status ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]ledger.StatusTotals, len(rows))
	for i, row := range rows {
		totals[i] = ledger.StatusTotals{
			Status:      ledger.BillStatus(row.Status),
			Count:       row.Count,
			TotalAmount: row.TotalAmount,
			AmountPaid:  row.AmountPaid,
			Outstanding: row.Outstanding,
		}
	}
	return totals, nil
}

func (r *GormBillRepository) applyFilter(q *gorm.DB, filter ledger.BillFilter) *gorm.DB {
	if filter.TenantID != nil {
		q = q.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.BillingMonth != "" {
		q = q.Where("billing_month = ?", filter.BillingMonth)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.RoomNumber != "" {
		q = q.Where("room_number = ?", filter.RoomNumber)
	}
	if filter.Search != "" {
		q = q.Where(`LOWER(tenant_name) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}
	return q
}

var _ ledger.BillRepository = (*GormBillRepository)(nil)

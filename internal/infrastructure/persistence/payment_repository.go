package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := lockForUpdate(ctx, conn(ctx, r.db)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("payment", id.String())
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	var rows []models.PaymentModel
	q := r.applyFilter(conn(ctx, r.db).Model(&models.PaymentModel{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, PaymentSortFields, "created_at"))
	if filter.PageSize > 0 {
		q = q.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayments(rows), nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter ledger.PaymentFilter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.PaymentModel{}), filter).Count(&count).Error
	return count, err
}

// FindByBill returns the payments linked to a bill in recording order
func (r *GormPaymentRepository) FindByBill(ctx context.Context, billID uuid.UUID) ([]ledger.Payment, error) {
	var rows []models.PaymentModel
	if err := conn(ctx, r.db).
		Where("bill_id = ?", billID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPayments(rows), nil
}

// SumByBill sums the amounts of payments linked to a bill
func (r *GormPaymentRepository) SumByBill(ctx context.Context, billID uuid.UUID) (int64, error) {
	var sum int64
	err := conn(ctx, r.db).Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount_paid), 0)").
		Where("bill_id = ?", billID).
		Scan(&sum).Error
	return sum, err
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	return conn(ctx, r.db).Save(models.PaymentModelFromDomain(payment)).Error
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.PaymentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("payment", id.String())
	}
	return nil
}

// UnlinkByMonth detaches every payment of a month from its bill. Applied
// payments whose bill_id was already nulled by the foreign key are included.
func (r *GormPaymentRepository) UnlinkByMonth(ctx context.Context, month ledger.BillingMonth) (int64, error) {
	result := conn(ctx, r.db).Model(&models.PaymentModel{}).
		Where("billing_month = ? AND (bill_id IS NOT NULL OR status = ?)", month, ledger.PaymentStatusApplied).
		Updates(map[string]any{
			"bill_id": nil,
			"status":  ledger.PaymentStatusUnapplied,
		})
	return result.RowsAffected, result.Error
}

// TotalsByMethod aggregates payments per method. An empty month covers all months.
func (r *GormPaymentRepository) TotalsByMethod(ctx context.Context, month ledger.BillingMonth) ([]ledger.MethodTotals, error) {
	var rows []struct {
		Method string
		Count  int64
		Amount int64
	}
	q := conn(ctx, r.db).Model(&models.PaymentModel{}).
		Select("payment_method AS method, COUNT(*) AS count, COALESCE(SUM(amount_paid), 0) AS amount")
	if month != "" {
		q = q.Where("billing_month = ?", month)
	}
	if err := q.Group("payment_method").Order("payment_method ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]ledger.MethodTotals, len(rows))
	for i, row := range rows {
		totals[i] = ledger.MethodTotals{
			Method: ledger.PaymentMethod(row.Method),
			Count:  row.Count,
			Amount: row.Amount,
		}
	}
	return totals, nil
}

// TotalsByMonth aggregates payments per billing month, newest first
func (r *GormPaymentRepository) TotalsByMonth(ctx context.Context) ([]ledger.MonthTotals, error) {
	var rows []struct {
		BillingMonth string
		Count        int64
		Amount       int64
	}
	if err := conn(ctx, r.db).Model(&models.PaymentModel{}).
		Select("billing_month, COUNT(*) AS count, COALESCE(SUM(amount_paid), 0) AS amount").
		Group("billing_month").
		Order("billing_month DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]ledger.MonthTotals, len(rows))
	for i, row := range rows {
		totals[i] = ledger.MonthTotals{
			BillingMonth: ledger.BillingMonth(row.BillingMonth),
			Count:        row.Count,
			Amount:       row.Amount,
		}
	}
	return totals, nil
}

func (r *GormPaymentRepository) applyFilter(q *gorm.DB, filter ledger.PaymentFilter) *gorm.DB {
	if filter.TenantID != nil {
		q = q.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.BillingMonth != "" {
		q = q.Where("billing_month = ?", filter.BillingMonth)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		q = q.Where("payment_method = ?", *filter.Method)
	}
	if filter.BillID != nil {
		q = q.Where("bill_id = ?", *filter.BillID)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		q = q.Where(`(LOWER(transaction_id) LIKE ? ESCAPE '\' OR LOWER(notes) LIKE ? ESCAPE '\')`, like, like)
	}
	return q
}

func toPayments(rows []models.PaymentModel) []ledger.Payment {
	payments := make([]ledger.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/domain/residency"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"github.com/pgledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentLedger records, edits and deletes payments, keeping each
// tenant's bill for the month reconciled with the payments linked to it
type PaymentLedger struct {
	tenantRepo     residency.TenantRepository
	billRepo       ledger.BillRepository
	paymentRepo    ledger.PaymentRepository
	txManager      shared.TransactionManager
	locker         shared.Locker
	lockTTL        time.Duration
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	now            func() time.Time
}

// NewPaymentLedger creates a new PaymentLedger
func NewPaymentLedger(
	tenantRepo residency.TenantRepository,
	billRepo ledger.BillRepository,
	paymentRepo ledger.PaymentRepository,
	txManager shared.TransactionManager,
	locker shared.Locker,
	lockTTL time.Duration,
) *PaymentLedger {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &PaymentLedger{
		tenantRepo:  tenantRepo,
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		locker:      locker,
		lockTTL:     lockTTL,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (l *PaymentLedger) SetEventPublisher(publisher shared.EventPublisher) {
	l.eventPublisher = publisher
}

// SetLedgerMetrics sets the metrics collector
func (l *PaymentLedger) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	l.metrics = m
}

// RecordPayment stores a payment and applies it to the tenant's bill for
// the month. Without a bill the payment is kept unapplied and the result
// carries an ORPHAN_PAYMENT warning.
func (l *PaymentLedger) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	var paidOn time.Time
	if req.PaidOn != "" {
		d, err := time.Parse(dateLayout, req.PaidOn)
		if err != nil {
			return nil, shared.NewValidationError("payment date %q must be in YYYY-MM-DD format", req.PaidOn)
		}
		paidOn = d
	}

	tenant, err := l.tenantRepo.FindByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	payment, err := ledger.NewPayment(ledger.PaymentInput{
		TenantID:      tenant.ID,
		RoomNumber:    tenant.RoomNumber,
		BillingMonth:  req.BillingMonth,
		Amount:        req.Amount,
		Method:        ledger.PaymentMethod(req.Method),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		PaidOn:        paidOn,
	}, l.now())
	if err != nil {
		return nil, err
	}

	unlock, err := l.lock(ctx, payment.TenantID, payment.BillingMonth)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var bill *ledger.Bill
	err = l.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bill, err = l.findBill(ctx, payment.TenantID, payment.BillingMonth)
		if err != nil {
			return err
		}
		if bill != nil {
			if err := bill.ApplyPayment(payment, l.now()); err != nil {
				return err
			}
		}
		if err := l.paymentRepo.Save(ctx, payment); err != nil {
			return err
		}
		if bill != nil {
			return l.billRepo.SaveWithLock(ctx, bill)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.PaymentRecorded(ctx, string(payment.Method), payment.Amount, bill != nil)
	result := &PaymentResult{Payment: ToPaymentResponse(payment)}
	if bill == nil {
		result.Warning = &Warning{
			Code:    ledger.CodeOrphanPayment,
			Message: fmt.Sprintf("no bill exists for %s yet; payment recorded as unapplied", payment.BillingMonth),
		}
		logger.L(ctx).Warn("orphan payment recorded",
			zap.String("payment_id", payment.ID.String()),
			zap.String("tenant_id", payment.TenantID.String()),
			logger.Month(payment.BillingMonth.String()),
			zap.Int64("amount", payment.Amount))
		return result, nil
	}

	l.publishDomainEvents(ctx, bill)
	billResp := ToBillResponse(bill)
	result.Bill = &billResp
	return result, nil
}

// UpdatePayment edits a payment. An amount change moves the linked bill's
// paid total by the difference.
func (l *PaymentLedger) UpdatePayment(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResult, error) {
	current, err := l.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := l.lock(ctx, current.TenantID, current.BillingMonth)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		payment *ledger.Payment
		bill    *ledger.Bill
	)
	err = l.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = l.paymentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		now := l.now()

		method := payment.Method
		if req.Method != nil {
			method = ledger.PaymentMethod(*req.Method)
		}
		transactionID := payment.TransactionID
		if req.TransactionID != nil {
			transactionID = *req.TransactionID
		}
		notes := payment.Notes
		if req.Notes != nil {
			notes = *req.Notes
		}
		if err := payment.UpdateDetails(method, transactionID, notes, now); err != nil {
			return err
		}

		if req.Amount != nil && *req.Amount != payment.Amount {
			previous, err := payment.ChangeAmount(*req.Amount, now)
			if err != nil {
				return err
			}
			if payment.BillID != nil {
				bill, err = l.billRepo.FindByID(ctx, *payment.BillID)
				if err != nil {
					return err
				}
				if err := bill.ReconcileAmountChange(payment, previous, now); err != nil {
					return err
				}
				if err := l.billRepo.SaveWithLock(ctx, bill); err != nil {
					return err
				}
			}
		}
		return l.paymentRepo.Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{Payment: ToPaymentResponse(payment)}
	if bill != nil {
		billResp := ToBillResponse(bill)
		result.Bill = &billResp
	}
	return result, nil
}

// DeletePayment removes a payment and takes its amount back off the
// linked bill
func (l *PaymentLedger) DeletePayment(ctx context.Context, id uuid.UUID) (*PaymentResult, error) {
	current, err := l.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := l.lock(ctx, current.TenantID, current.BillingMonth)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		payment *ledger.Payment
		bill    *ledger.Bill
	)
	err = l.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = l.paymentRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if payment.BillID != nil {
			bill, err = l.billRepo.FindByID(ctx, *payment.BillID)
			if err != nil {
				return err
			}
			if err := bill.ReversePayment(payment, l.now()); err != nil {
				return err
			}
			if err := l.billRepo.SaveWithLock(ctx, bill); err != nil {
				return err
			}
		}
		return l.paymentRepo.Delete(ctx, payment.ID)
	})
	if err != nil {
		return nil, err
	}

	l.metrics.PaymentReversed(ctx, string(payment.Method))
	logger.L(ctx).Info("payment deleted",
		zap.String("payment_id", payment.ID.String()),
		zap.Bool("was_applied", bill != nil))

	result := &PaymentResult{Payment: ToPaymentResponse(payment)}
	if bill != nil {
		l.publishDomainEvents(ctx, bill)
		billResp := ToBillResponse(bill)
		result.Bill = &billResp
	}
	return result, nil
}

// lock serializes payment writes for one tenant and month
func (l *PaymentLedger) lock(ctx context.Context, tenantID uuid.UUID, month ledger.BillingMonth) (func(), error) {
	key := fmt.Sprintf("ledger:%s:%s", tenantID, month)
	unlock, err := l.locker.Acquire(ctx, key, l.lockTTL)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger.L(ctx).Warn("release ledger lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (l *PaymentLedger) findBill(ctx context.Context, tenantID uuid.UUID, month ledger.BillingMonth) (*ledger.Bill, error) {
	bill, err := l.billRepo.FindByTenantAndMonth(ctx, tenantID, month)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return bill, err
}

func (l *PaymentLedger) publishDomainEvents(ctx context.Context, bill *ledger.Bill) {
	if l.eventPublisher == nil {
		return
	}
	events := bill.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = l.eventPublisher.Publish(ctx, events...)
	bill.ClearDomainEvents()
}

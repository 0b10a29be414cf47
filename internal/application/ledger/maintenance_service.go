package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"github.com/pgledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MaintenanceService runs the administrative passes over bills: the
// due-date sweep and the month-clear
type MaintenanceService struct {
	billRepo       ledger.BillRepository
	paymentRepo    ledger.PaymentRepository
	txManager      shared.TransactionManager
	locker         shared.Locker
	lockTTL        time.Duration
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(
	billRepo ledger.BillRepository,
	paymentRepo ledger.PaymentRepository,
	txManager shared.TransactionManager,
	locker shared.Locker,
	lockTTL time.Duration,
) *MaintenanceService {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &MaintenanceService{
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		txManager:   txManager,
		locker:      locker,
		lockTTL:     lockTTL,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *MaintenanceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLedgerMetrics sets the metrics collector
func (s *MaintenanceService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// Sweep flags pending and partial bills whose due date is before asOf as
// overdue. Bills that a concurrent payment holds are left for the next run.
func (s *MaintenanceService) Sweep(ctx context.Context, asOf time.Time) (int, error) {
	candidates, err := s.billRepo.FindOverdueCandidates(ctx, asOf)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		bill, err := s.markOverdue(ctx, candidate, asOf)
		switch {
		case errors.Is(err, shared.ErrLockNotAcquired), errors.Is(err, shared.ErrConcurrencyConflict):
			logger.L(ctx).Info("overdue sweep skipped busy bill",
				zap.String("bill_id", candidate.ID.String()), zap.Error(err))
			continue
		case err != nil:
			return marked, err
		case bill == nil:
			continue
		}
		marked++
		s.publishDomainEvents(ctx, bill)
	}

	s.metrics.BillsMarkedOverdue(ctx, marked)
	return marked, nil
}

func (s *MaintenanceService) markOverdue(ctx context.Context, candidate *ledger.Bill, asOf time.Time) (*ledger.Bill, error) {
	key := fmt.Sprintf("ledger:%s:%s", candidate.TenantID, candidate.BillingMonth)
	unlock, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	var marked *ledger.Bill
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		bill, err := s.billRepo.FindByID(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if !bill.MarkOverdue(asOf) {
			return nil
		}
		if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
			return err
		}
		marked = bill
		return nil
	})
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return marked, err
}

// ClearMonth deletes every bill of a month. Payments that were applied to
// them are kept and become unapplied; tenant meter readings are not rolled
// back.
func (s *MaintenanceService) ClearMonth(ctx context.Context, billingMonth string) (*ClearMonthResponse, error) {
	month, err := ledger.ParseBillingMonth(billingMonth)
	if err != nil {
		return nil, err
	}

	response := &ClearMonthResponse{BillingMonth: month.String()}
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// Bills go first: a payment that commits against a bill before the
		// delete is still caught by the unlink that follows.
		deleted, err := s.billRepo.DeleteByMonth(ctx, month)
		if err != nil {
			return err
		}
		unlinked, err := s.paymentRepo.UnlinkByMonth(ctx, month)
		if err != nil {
			return err
		}
		response.PaymentsUnlinked = unlinked
		response.BillsDeleted = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Warn("billing month cleared",
		logger.Month(month.String()),
		zap.Int64("bills_deleted", response.BillsDeleted),
		zap.Int64("payments_unlinked", response.PaymentsUnlinked))
	return response, nil
}

func (s *MaintenanceService) publishDomainEvents(ctx context.Context, bill *ledger.Bill) {
	if s.eventPublisher == nil {
		return
	}
	events := bill.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	bill.ClearDomainEvents()
}

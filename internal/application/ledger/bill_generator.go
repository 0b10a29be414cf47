package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/domain/residency"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"github.com/pgledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GeneratorConfig holds the generation defaults
type GeneratorConfig struct {
	DefaultRate         decimal.Decimal
	DueDays             int
	RequireMeterReading bool
	Workers             int
	LockTTL             time.Duration
}

// DefaultGeneratorConfig returns the generation defaults
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		DefaultRate:         decimal.NewFromInt(12),
		DueDays:             10,
		RequireMeterReading: true,
		Workers:             4,
		LockTTL:             30 * time.Second,
	}
}

// BillGenerator creates the monthly bills of every active tenant, room by room
type BillGenerator struct {
	tenantRepo     residency.TenantRepository
	billRepo       ledger.BillRepository
	txManager      shared.TransactionManager
	locker         shared.Locker
	cfg            GeneratorConfig
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	now            func() time.Time
}

// NewBillGenerator creates a new BillGenerator
func NewBillGenerator(
	tenantRepo residency.TenantRepository,
	billRepo ledger.BillRepository,
	txManager shared.TransactionManager,
	locker shared.Locker,
	cfg GeneratorConfig,
) *BillGenerator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &BillGenerator{
		tenantRepo: tenantRepo,
		billRepo:   billRepo,
		txManager:  txManager,
		locker:     locker,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (g *BillGenerator) SetEventPublisher(publisher shared.EventPublisher) {
	g.eventPublisher = publisher
}

// SetLedgerMetrics sets the metrics collector
func (g *BillGenerator) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	g.metrics = m
}

// generationRun is the validated input shared by every room of one run
type generationRun struct {
	month    ledger.BillingMonth
	rate     decimal.Decimal
	readings map[string]int64
	dueDate  time.Time
	now      time.Time
}

// roomOutcome is what one room contributed to the run
type roomOutcome struct {
	bills      []*ledger.Bill
	allocation *RoomAllocationResponse
	skipped    *SkippedRoom
}

// GenerateBills creates one bill per active tenant for the month. Rooms are
// processed independently; a room that already has a bill for any of its
// tenants is skipped, so re-running a month only fills the gaps.
func (g *BillGenerator) GenerateBills(ctx context.Context, req GenerateBillsRequest) (*GenerationReport, error) {
	run, err := g.prepare(req)
	if err != nil {
		return nil, err
	}
	started := time.Now()

	tenants, err := g.tenantRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, ledger.ErrNoTenants
	}
	groups := residency.GroupByRoom(tenants)

	outcomes := make([]roomOutcome, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, group := range groups {
		eg.Go(func() error {
			out, err := g.generateRoom(egCtx, run, group.RoomNumber)
			if err != nil {
				return fmt.Errorf("generate bills for room %s: %w", group.RoomNumber, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	waitErr := eg.Wait()

	// Rooms that committed before a failure keep their bills; announce them
	// even when the run as a whole fails.
	report := g.buildReport(run, outcomes)
	for _, out := range outcomes {
		for _, b := range out.bills {
			g.publishDomainEvents(ctx, b)
		}
	}

	skippedByReason := make(map[string]int)
	for _, s := range report.Skipped {
		skippedByReason[s.Reason]++
	}
	g.metrics.GenerationFinished(ctx, run.month.String(), report.BillsGenerated, skippedByReason, time.Since(started).Seconds())

	log := logger.L(ctx).With(logger.Month(run.month.String()))
	for _, s := range report.Skipped {
		log.Info("room skipped", logger.Room(s.RoomNumber), zap.String("reason", s.Reason))
	}
	if waitErr != nil {
		log.Error("bill generation failed", zap.Int("bills_generated", report.BillsGenerated), zap.Error(waitErr))
		return nil, waitErr
	}
	log.Info("bill generation finished",
		zap.Int("rooms", len(groups)),
		zap.Int("bills_generated", report.BillsGenerated),
		zap.Int("rooms_skipped", len(report.Skipped)),
		zap.Int64("total_amount", report.TotalAmount))
	return report, nil
}

func (g *BillGenerator) prepare(req GenerateBillsRequest) (generationRun, error) {
	month, err := ledger.ParseBillingMonth(req.BillingMonth)
	if err != nil {
		return generationRun{}, err
	}

	rate := g.cfg.DefaultRate
	if req.ElectricityRate != nil {
		rate = *req.ElectricityRate
	}
	if rate.IsNegative() {
		return generationRun{}, shared.NewValidationError("electricity rate cannot be negative")
	}

	for room, reading := range req.CurrentReadings {
		if reading < 0 {
			return generationRun{}, shared.NewValidationError("reading for room %s cannot be negative", room)
		}
	}

	dueDays := g.cfg.DueDays
	if req.DueDays != nil {
		dueDays = *req.DueDays
	}
	if dueDays < 0 {
		return generationRun{}, shared.NewValidationError("due days cannot be negative")
	}

	now := g.now()
	return generationRun{
		month:    month,
		rate:     rate,
		readings: req.CurrentReadings,
		dueDate:  now.AddDate(0, 0, dueDays),
		now:      now,
	}, nil
}

// generateRoom bills one room under its advisory lock and a single
// transaction. Expected per-room conditions come back as a skip; only
// storage and locking failures are returned as errors.
func (g *BillGenerator) generateRoom(ctx context.Context, run generationRun, room string) (roomOutcome, error) {
	unlock, err := g.locker.Acquire(ctx, fmt.Sprintf("bills:generate:%s:%s", room, run.month), g.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrLockNotAcquired) {
			return skip(room, shared.CodeLockNotAcquired, "another generation run holds this room"), nil
		}
		return roomOutcome{}, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger.L(ctx).Warn("release generation lock", logger.Room(room), zap.Error(err))
		}
	}()

	var out roomOutcome
	err = g.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		out = roomOutcome{}

		tenants, err := g.tenantRepo.FindActiveByRoom(ctx, room)
		if err != nil {
			return err
		}
		if len(tenants) == 0 {
			out = skip(room, ledger.CodeRoomEmptied, "no active tenants left in the room")
			return nil
		}

		group := residency.RoomGroup{RoomNumber: room, Tenants: tenants}
		exists, err := g.billRepo.ExistsForTenants(ctx, group.TenantIDs(), run.month)
		if err != nil {
			return err
		}
		if exists {
			out = skip(room, ledger.CodeDuplicateBill,
				fmt.Sprintf("bills for %s already exist in this room", run.month))
			return nil
		}

		reading, estimated, ok := g.resolveReading(run, group)
		if !ok {
			out = skip(room, ledger.CodeMissingReading, "no meter reading supplied for the room")
			return nil
		}

		shares := make([]ledger.MeterShare, len(tenants))
		for i, t := range tenants {
			shares[i] = ledger.MeterShare{TenantID: t.ID, JoiningReading: t.ElectricityJoiningReading}
		}
		alloc, err := ledger.Allocate(shares, reading, run.rate)
		if err != nil {
			return err
		}

		bills := make([]*ledger.Bill, 0, len(tenants))
		for _, t := range tenants {
			share, _ := alloc.ShareOf(t.ID)
			bill, err := ledger.NewBill(ledger.BillInput{
				TenantID:          t.ID,
				TenantName:        t.Name,
				RoomNumber:        room,
				BillingMonth:      run.month,
				RentAmount:        t.MonthlyRent,
				ElectricityUnits:  share.Units,
				ElectricityRate:   run.rate,
				ElectricityAmount: share.Amount,
				DueDate:           run.dueDate,
			}, run.now)
			if err != nil {
				return err
			}
			bills = append(bills, bill)
		}
		if err := g.billRepo.SaveBatch(ctx, bills); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				out = skip(room, ledger.CodeDuplicateBill,
					fmt.Sprintf("bills for %s already exist in this room", run.month))
				return nil
			}
			return err
		}

		for _, t := range tenants {
			t.AdvanceReading(reading, run.now)
			if err := g.tenantRepo.SaveWithLock(ctx, t); err != nil {
				return err
			}
		}

		out = roomOutcome{
			bills: bills,
			allocation: &RoomAllocationResponse{
				RoomNumber:  room,
				Reading:     reading,
				Baseline:    alloc.Baseline,
				TotalUnits:  alloc.TotalUnits,
				TotalAmount: alloc.TotalAmount,
				Tenants:     len(tenants),
				Estimated:   estimated,
			},
		}
		return nil
	})
	if err != nil {
		return roomOutcome{}, err
	}
	return out, nil
}

// resolveReading picks the meter value to bill the room at. An explicit
// reading always wins; the last known value is used only when configured.
func (g *BillGenerator) resolveReading(run generationRun, group residency.RoomGroup) (reading int64, estimated, ok bool) {
	if r, found := run.readings[group.RoomNumber]; found {
		return r, false, true
	}
	if g.cfg.RequireMeterReading {
		return 0, false, false
	}

	known := int64(-1)
	for _, t := range group.Tenants {
		if t.LastElectricityReading != nil && *t.LastElectricityReading > known {
			known = *t.LastElectricityReading
		}
	}
	if known < 0 {
		for _, t := range group.Tenants {
			if t.ElectricityJoiningReading > known {
				known = t.ElectricityJoiningReading
			}
		}
	}
	return known, true, true
}

func (g *BillGenerator) buildReport(run generationRun, outcomes []roomOutcome) *GenerationReport {
	report := &GenerationReport{
		BillingMonth:    run.month.String(),
		ElectricityRate: run.rate,
		Bills:           []BillResponse{},
		Rooms:           []RoomAllocationResponse{},
		Skipped:         []SkippedRoom{},
	}
	for _, out := range outcomes {
		if out.skipped != nil {
			report.Skipped = append(report.Skipped, *out.skipped)
		}
		if out.allocation != nil {
			report.Rooms = append(report.Rooms, *out.allocation)
			report.TotalUnits += out.allocation.TotalUnits
			report.ElectricityTotal += out.allocation.TotalAmount
		}
		for _, b := range out.bills {
			report.Bills = append(report.Bills, ToBillResponse(b))
			report.TotalAmount += b.TotalAmount
		}
	}
	report.BillsGenerated = len(report.Bills)

	sort.SliceStable(report.Skipped, func(i, j int) bool {
		return report.Skipped[i].RoomNumber < report.Skipped[j].RoomNumber
	})
	return report
}

func (g *BillGenerator) publishDomainEvents(ctx context.Context, bill *ledger.Bill) {
	if g.eventPublisher == nil {
		return
	}
	events := bill.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = g.eventPublisher.Publish(ctx, events...)
	bill.ClearDomainEvents()
}

func skip(room, reason, message string) roomOutcome {
	return roomOutcome{skipped: &SkippedRoom{RoomNumber: room, Reason: reason, Message: message}}
}

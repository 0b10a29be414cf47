package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	ledgerapp "github.com/pgledger/backend/internal/application/ledger"
	residencyapp "github.com/pgledger/backend/internal/application/residency"
	"github.com/pgledger/backend/internal/domain/ledger"
	"github.com/pgledger/backend/internal/infrastructure/cache"
	"github.com/pgledger/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

type ledgerEnv struct {
	db        *TestDB
	bills     *persistence.GormBillRepository
	payments  *persistence.GormPaymentRepository
	tenants   *residencyapp.TenantService
	generator *ledgerapp.BillGenerator
	ledger    *ledgerapp.PaymentLedger
	maint     *ledgerapp.MaintenanceService
	query     *ledgerapp.QueryService
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewSharedTestDB(t)
	testDB.CleanTables()

	tenantRepo := persistence.NewGormTenantRepository(testDB.DB)
	billRepo := persistence.NewGormBillRepository(testDB.DB)
	paymentRepo := persistence.NewGormPaymentRepository(testDB.DB)
	tx := persistence.NewGormTransactionManager(testDB.DB)
	locker := cache.NewInMemoryLocker(10 * time.Second)

	return &ledgerEnv{
		db:        testDB,
		bills:     billRepo,
		payments:  paymentRepo,
		tenants:   residencyapp.NewTenantService(tenantRepo, tx),
		generator: ledgerapp.NewBillGenerator(tenantRepo, billRepo, tx, locker, ledgerapp.DefaultGeneratorConfig()),
		ledger:    ledgerapp.NewPaymentLedger(tenantRepo, billRepo, paymentRepo, tx, locker, 10*time.Second),
		maint:     ledgerapp.NewMaintenanceService(billRepo, paymentRepo, tx, locker, 10*time.Second),
		query:     ledgerapp.NewQueryService(billRepo, paymentRepo),
	}
}

func (e *ledgerEnv) register(t *testing.T, name, room string, rent, joining int64) uuid.UUID {
	t.Helper()
	tenant, err := e.tenants.Register(context.Background(), residencyapp.RegisterTenantRequest{
		Name:                      name,
		RoomNumber:                room,
		MonthlyRent:               rent,
		ElectricityJoiningReading: joining,
		JoiningDate:               "2024-01-15",
	})
	require.NoError(t, err)
	return tenant.ID
}

func rate(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func TestLedger_GenerateAndReconcile_Postgres(t *testing.T) {
	e := newLedgerEnv(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"Asha", "Bina", "Chitra", "Divya"} {
		ids = append(ids, e.register(t, name, "301", 6000, 0))
	}
	single := e.register(t, "Esha", "204", 8000, 800)

	report, err := e.generator.GenerateBills(ctx, ledgerapp.GenerateBillsRequest{
		BillingMonth:    "2024-03",
		ElectricityRate: rate(12),
		CurrentReadings: map[string]int64{"301": 450, "204": 950},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, report.BillsGenerated)
	assert.Empty(t, report.Skipped)

	var electricity int64
	for _, id := range ids {
		b, err := e.bills.FindByTenantAndMonth(ctx, id, ledger.BillingMonth("2024-03"))
		require.NoError(t, err)
		electricity += b.ElectricityAmount
	}
	assert.Equal(t, int64(5400), electricity)

	b, err := e.bills.FindByTenantAndMonth(ctx, single, ledger.BillingMonth("2024-03"))
	require.NoError(t, err)
	assert.Equal(t, int64(150), b.ElectricityUnits)
	assert.Equal(t, int64(1800), b.ElectricityAmount)
	assert.Equal(t, int64(9800), b.TotalAmount)

	rerun, err := e.generator.GenerateBills(ctx, ledgerapp.GenerateBillsRequest{
		BillingMonth:    "2024-03",
		ElectricityRate: rate(12),
		CurrentReadings: map[string]int64{"301": 450, "204": 950},
	})
	require.NoError(t, err)
	assert.Zero(t, rerun.BillsGenerated)
	assert.Len(t, rerun.Skipped, 2)

	count, err := e.bills.Count(ctx, ledger.BillFilter{BillingMonth: ledger.BillingMonth("2024-03")})
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestLedger_ConcurrentPayments_Postgres(t *testing.T) {
	e := newLedgerEnv(t)
	ctx := context.Background()

	tenantID := e.register(t, "Farah", "101", 6000, 0)
	_, err := e.generator.GenerateBills(ctx, ledgerapp.GenerateBillsRequest{
		BillingMonth:    "2024-03",
		CurrentReadings: map[string]int64{"101": 0},
	})
	require.NoError(t, err)

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ledger.RecordPayment(ctx, ledgerapp.RecordPaymentRequest{
				TenantID:     tenantID,
				BillingMonth: "2024-03",
				Amount:       500,
				Method:       "upi",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	bill, err := e.bills.FindByTenantAndMonth(ctx, tenantID, ledger.BillingMonth("2024-03"))
	require.NoError(t, err)
	sum, err := e.payments.SumByBill(ctx, bill.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(6000), sum)
	assert.Equal(t, sum, bill.AmountPaid)
	assert.Zero(t, bill.BalanceDue)
	assert.Equal(t, ledger.BillStatusPaid, bill.Status)
	assert.Len(t, bill.PaymentIDs, workers)
}

func TestLedger_SweepStatsAndClear_Postgres(t *testing.T) {
	e := newLedgerEnv(t)
	ctx := context.Background()

	first := e.register(t, "Gita", "501", 5000, 0)
	second := e.register(t, "Hema", "502", 7000, 0)
	_, err := e.generator.GenerateBills(ctx, ledgerapp.GenerateBillsRequest{
		BillingMonth:    "2024-03",
		CurrentReadings: map[string]int64{"501": 0, "502": 0},
	})
	require.NoError(t, err)

	_, err = e.ledger.RecordPayment(ctx, ledgerapp.RecordPaymentRequest{
		TenantID: first, BillingMonth: "2024-03", Amount: 5000, Method: "cash",
	})
	require.NoError(t, err)
	_, err = e.ledger.RecordPayment(ctx, ledgerapp.RecordPaymentRequest{
		TenantID: second, BillingMonth: "2024-03", Amount: 2000, Method: "bank_transfer",
	})
	require.NoError(t, err)

	marked, err := e.maint.Sweep(ctx, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	stats, err := e.query.Stats(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBills)
	assert.Equal(t, int64(12000), stats.TotalBilled)
	assert.Equal(t, int64(7000), stats.TotalCollected)
	assert.Equal(t, int64(5000), stats.OverdueAmount)
	assert.Equal(t, int64(1), stats.BillsByStatus["paid"])
	assert.Equal(t, int64(1), stats.BillsByStatus["overdue"])
	assert.Len(t, stats.ByMethod, 2)

	cleared, err := e.maint.ClearMonth(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared.BillsDeleted)
	assert.Equal(t, int64(2), cleared.PaymentsUnlinked)

	payments, total, err := e.query.ListPayments(ctx, ledgerapp.PaymentListFilter{BillingMonth: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range payments {
		assert.Equal(t, "unapplied", p.Status)
		assert.Nil(t, p.BillID)
	}
}

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestLedgerMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewLedgerMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.GenerationFinished(ctx, "2024-03", 5, map[string]int{"DUPLICATE_BILL": 1, "MISSING_READING": 2}, 0.3)
	m.PaymentRecorded(ctx, "upi", 5000, true)
	m.PaymentRecorded(ctx, "cash", 700, false)
	m.PaymentReversed(ctx, "upi")
	m.BillsMarkedOverdue(ctx, 3)

	sums := collect(t, reader)
	assert.Equal(t, int64(5), sums["ledger.bills.generated"])
	assert.Equal(t, int64(3), sums["ledger.rooms.skipped"])
	assert.Equal(t, int64(2), sums["ledger.payments.recorded"])
	assert.Equal(t, int64(5700), sums["ledger.payments.amount"])
	assert.Equal(t, int64(1), sums["ledger.payments.reversed"])
	assert.Equal(t, int64(3), sums["ledger.bills.overdue"])
}

func TestLedgerMetrics_NilIsNoop(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.PaymentRecorded(context.Background(), "cash", 1, true)
		m.GenerationFinished(context.Background(), "2024-03", 1, nil, 0)
	})
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer("x"))
	assert.NotNil(t, p.Meter("x"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, RegisterDBTracing(db, "sqlite"))
	assert.NoError(t, db.Exec("SELECT 1").Error)
}

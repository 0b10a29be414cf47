package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMetrics records billing activity counters
type LedgerMetrics struct {
	billsGenerated   metric.Int64Counter
	roomsSkipped     metric.Int64Counter
	paymentsTotal    metric.Int64Counter
	amountCollected  metric.Int64Counter
	paymentsReversed metric.Int64Counter
	billsOverdue     metric.Int64Counter
	generationTime   metric.Float64Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.billsGenerated, "ledger.bills.generated", "Bills created by monthly generation", "{bill}"},
		{&m.roomsSkipped, "ledger.rooms.skipped", "Rooms skipped during generation", "{room}"},
		{&m.paymentsTotal, "ledger.payments.recorded", "Payments recorded", "{payment}"},
		{&m.amountCollected, "ledger.payments.amount", "Amount collected through payments", "1"},
		{&m.paymentsReversed, "ledger.payments.reversed", "Payments deleted and reversed off their bill", "{payment}"},
		{&m.billsOverdue, "ledger.bills.overdue", "Bills flagged overdue by the sweep", "{bill}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
	}

	m.generationTime, err = meter.Float64Histogram("ledger.generation.duration",
		metric.WithDescription("Duration of a bill generation run"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create histogram: %w", err)
	}
	return m, nil
}

// GenerationFinished records the outcome of one generation run
func (m *LedgerMetrics) GenerationFinished(ctx context.Context, month string, generated int, skipped map[string]int, seconds float64) {
	if m == nil {
		return
	}
	monthAttr := attribute.String("billing_month", month)
	m.billsGenerated.Add(ctx, int64(generated), metric.WithAttributes(monthAttr))
	for reason, n := range skipped {
		m.roomsSkipped.Add(ctx, int64(n), metric.WithAttributes(monthAttr, attribute.String("reason", reason)))
	}
	m.generationTime.Record(ctx, seconds, metric.WithAttributes(monthAttr))
}

// PaymentRecorded counts a payment and the amount received
func (m *LedgerMetrics) PaymentRecorded(ctx context.Context, method string, amount int64, applied bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("applied", applied),
	)
	m.paymentsTotal.Add(ctx, 1, attrs)
	m.amountCollected.Add(ctx, amount, attrs)
}

// PaymentReversed counts a deleted payment
func (m *LedgerMetrics) PaymentReversed(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.paymentsReversed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// BillsMarkedOverdue counts bills flagged by one sweep
func (m *LedgerMetrics) BillsMarkedOverdue(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.billsOverdue.Add(ctx, int64(n))
}

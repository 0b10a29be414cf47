package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingMonth(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"2024-03", true},
		{"1999-12", true},
		{"2024-01", true},
		{"2024-00", false},
		{"2024-13", false},
		{"2024-3", false},
		{"24-03", false},
		{"2024/03", false},
		{"2024-03-01", false},
		{"", false},
		{"abcd-ef", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseBillingMonth(tt.in)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.in, m.String())
				return
			}
			require.Error(t, err)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		})
	}
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, BillingMonth("2024-11"), MonthOf(time.Date(2024, 11, 30, 23, 0, 0, 0, time.UTC)))
}

func TestNewPayment(t *testing.T) {
	tenantID := uuid.New()
	p, err := NewPayment(PaymentInput{
		TenantID:      tenantID,
		RoomNumber:    "301",
		BillingMonth:  "2024-03",
		Amount:        5000,
		Method:        PaymentMethodCash,
		TransactionID: "  TXN-1 ",
		PaidOn:        time.Date(2024, 3, 7, 18, 45, 0, 0, time.UTC),
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, tenantID, p.TenantID)
	assert.Equal(t, BillingMonth("2024-03"), p.BillingMonth)
	assert.Equal(t, "TXN-1", p.TransactionID)
	assert.Equal(t, PaymentStatusUnapplied, p.Status)
	assert.False(t, p.IsApplied())
	assert.Equal(t, "2024-03-07", p.PaidOn.Format("2006-01-02"))
}

func TestNewPayment_DefaultsPaidOnToNow(t *testing.T) {
	p, err := NewPayment(PaymentInput{
		TenantID:     uuid.New(),
		BillingMonth: "2024-03",
		Amount:       1,
		Method:       PaymentMethodCard,
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", p.PaidOn.Format("2006-01-02"))
}

func TestNewPayment_Validation(t *testing.T) {
	valid := PaymentInput{
		TenantID:     uuid.New(),
		BillingMonth: "2024-03",
		Amount:       100,
		Method:       PaymentMethodUPI,
	}

	tests := []struct {
		name   string
		mutate func(in *PaymentInput)
	}{
		{"missing tenant", func(in *PaymentInput) { in.TenantID = uuid.Nil }},
		{"bad month", func(in *PaymentInput) { in.BillingMonth = "March" }},
		{"zero amount", func(in *PaymentInput) { in.Amount = 0 }},
		{"negative amount", func(in *PaymentInput) { in.Amount = -10 }},
		{"unknown method", func(in *PaymentInput) { in.Method = "barter" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := NewPayment(in, testNow)
			require.Error(t, err)
			assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
		})
	}
}

func TestPayment_ChangeAmount(t *testing.T) {
	p, err := NewPayment(PaymentInput{TenantID: uuid.New(), BillingMonth: "2024-03", Amount: 100, Method: PaymentMethodCash}, testNow)
	require.NoError(t, err)

	prev, err := p.ChangeAmount(250, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(100), prev)
	assert.Equal(t, int64(250), p.Amount)

	_, err = p.ChangeAmount(0, testNow)
	assert.Error(t, err)
	assert.Equal(t, int64(250), p.Amount)
}

func TestPayment_UpdateDetailsAndUnlink(t *testing.T) {
	b := newTestBill(t, 500, 0)
	p := newTestPayment(t, b, 100)
	require.NoError(t, b.ApplyPayment(p, testNow))

	require.NoError(t, p.UpdateDetails(PaymentMethodCheque, "CHQ-77", "handed to warden", testNow))
	assert.Equal(t, PaymentMethodCheque, p.Method)
	assert.Equal(t, "CHQ-77", p.TransactionID)

	assert.Error(t, p.UpdateDetails("gold", "", "", testNow))

	p.Unlink(testNow)
	assert.Nil(t, p.BillID)
	assert.Equal(t, PaymentStatusUnapplied, p.Status)
}

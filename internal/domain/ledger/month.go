package ledger

import (
	"regexp"
	"strconv"
	"time"

	"github.com/pgledger/backend/internal/domain/shared"
)

var billingMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// BillingMonth identifies the calendar month a bill is generated for, as YYYY-MM
type BillingMonth string

// ParseBillingMonth validates s and returns it as a BillingMonth
func ParseBillingMonth(s string) (BillingMonth, error) {
	if !billingMonthPattern.MatchString(s) {
		return "", shared.NewValidationError("billing month %q must be in YYYY-MM format", s)
	}
	m, _ := strconv.Atoi(s[5:])
	if m < 1 || m > 12 {
		return "", shared.NewValidationError("billing month %q has an invalid month", s)
	}
	return BillingMonth(s), nil
}

// MonthOf returns the billing month containing t
func MonthOf(t time.Time) BillingMonth {
	return BillingMonth(t.Format("2006-01"))
}

func (m BillingMonth) String() string {
	return string(m)
}

package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC (the default)
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"room_number":  true,
	"monthly_rent": true,
	"status":       true,
	"joining_date": true,
}

// BillSortFields contains allowed sort fields for bills
var BillSortFields = map[string]bool{
	"created_at":     true,
	"billing_month":  true,
	"room_number":    true,
	"tenant_name":    true,
	"total_amount":   true,
	"amount_paid":    true,
	"balance_due":    true,
	"status":         true,
	"due_date":       true,
	"generated_date": true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"created_at":     true,
	"created_date":   true,
	"billing_month":  true,
	"amount_paid":    true,
	"payment_method": true,
	"status":         true,
}

// orderClause builds a whitelisted ORDER BY with id as the tie-breaker
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	field := ValidateSortField(orderBy, allowed, defaultField)
	return field + " " + ValidateSortOrder(orderDir) + ", id ASC"
}

// likePattern lower-cases a search term, escapes LIKE wildcards and wraps it
// for a contains match. Use with ESCAPE '\'.
func likePattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return "%" + s + "%"
}

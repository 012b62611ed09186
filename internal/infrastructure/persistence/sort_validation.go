package persistence

import (
	"strings"

	"github.com/erp/billing/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// AccountStatusSortFields contains allowed sort fields for account statuses
var AccountStatusSortFields = map[string]bool{
	"created_at":      true,
	"updated_at":      true,
	"document_number": true,
	"partner_name":    true,
	"issue_date":      true,
	"due_date":        true,
	"total_amount":    true,
	"due_amount":      true,
	"status":          true,
}

// AmortizationSortFields contains allowed sort fields for amortizations
var AmortizationSortFields = map[string]bool{
	"created_at":   true,
	"payment_date": true,
	"amount":       true,
	"status":       true,
	"mode":         true,
}

// CashAccountSortFields contains allowed sort fields for cash accounts
var CashAccountSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"kind":       true,
	"currency":   true,
	"balance":    true,
}

// CashTransactionSortFields contains allowed sort fields for cash transactions
var CashTransactionSortFields = map[string]bool{
	"created_at":       true,
	"transaction_date": true,
	"amount":           true,
	"type":             true,
}

// orderClause builds a safe ORDER BY clause; created_at breaks ties so pages are stable
func orderClause(f shared.Filter, allowed map[string]bool, defaultField string) string {
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(f.OrderDir)
	if field == "created_at" {
		return field + " " + dir
	}
	return field + " " + dir + ", created_at DESC"
}

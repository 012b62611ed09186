package dto

import "net/http"

// Error codes returned to clients. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeResourceLocked      = "ERR_RESOURCE_LOCKED"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeBusinessRule        = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientBalance = "ERR_INSUFFICIENT_BALANCE"
	ErrCodeCurrencyMismatch    = "ERR_CURRENCY_MISMATCH"
	ErrCodeExceedsDue          = "ERR_EXCEEDS_DUE"
	ErrCodeExceedsPaid         = "ERR_EXCEEDS_PAID"
	ErrCodeAmountMismatch      = "ERR_AMOUNT_MISMATCH"
	ErrCodeBankingRequired     = "ERR_BANKING_REQUIRED"
	ErrCodeAccountInactive     = "ERR_ACCOUNT_INACTIVE"
	ErrCodeHasAmortizations    = "ERR_HAS_AMORTIZATIONS"
	ErrCodeNotAmortizable      = "ERR_CREDIT_NOTE_NOT_AMORTIZABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeResourceLocked:      http.StatusConflict,

	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch:    http.StatusUnprocessableEntity,
	ErrCodeExceedsDue:          http.StatusUnprocessableEntity,
	ErrCodeExceedsPaid:         http.StatusUnprocessableEntity,
	ErrCodeAmountMismatch:      http.StatusUnprocessableEntity,
	ErrCodeBankingRequired:     http.StatusUnprocessableEntity,
	ErrCodeAccountInactive:     http.StatusUnprocessableEntity,
	ErrCodeHasAmortizations:    http.StatusUnprocessableEntity,
	ErrCodeNotAmortizable:      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes to client error codes
var domainCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"DUPLICATE_DOCUMENT":   ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"RESOURCE_LOCKED":      ErrCodeResourceLocked,
	"INSUFFICIENT_BALANCE": ErrCodeInsufficientBalance,
	"CURRENCY_MISMATCH":    ErrCodeCurrencyMismatch,
	"EXCEEDS_DUE":          ErrCodeExceedsDue,
	"EXCEEDS_PAID":         ErrCodeExceedsPaid,
	"AMOUNT_MISMATCH":      ErrCodeAmountMismatch,
	"BANKING_REQUIRED":     ErrCodeBankingRequired,
	"ACCOUNT_INACTIVE":     ErrCodeAccountInactive,
	"HAS_AMORTIZATIONS":    ErrCodeHasAmortizations,

	"CREDIT_NOTE_NOT_AMORTIZABLE": ErrCodeNotAmortizable,
}

// NormalizeErrorCode converts a domain error code to the client format.
// Other domain codes are rule violations: INVALID_*, *_MISMATCH and the like
// become ERR_<CODE> and answer 422.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainCodeMapping[code]; ok {
		return mapped
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return "ERR_" + code
}

// StatusForCode returns the HTTP status of a normalized code;
// unmapped ERR_ codes derived from domain rules answer 422.
func StatusForCode(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}

package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeResourceLocked, http.StatusConflict},
		{ErrCodeExceedsDue, http.StatusUnprocessableEntity},
		{ErrCodeBankingRequired, http.StatusUnprocessableEntity},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input      string
		expected   string
		wantStatus int
	}{
		{"NOT_FOUND", ErrCodeNotFound, http.StatusNotFound},
		{"DUPLICATE_DOCUMENT", ErrCodeAlreadyExists, http.StatusConflict},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"RESOURCE_LOCKED", ErrCodeResourceLocked, http.StatusConflict},
		{"EXCEEDS_DUE", ErrCodeExceedsDue, http.StatusUnprocessableEntity},
		{"CREDIT_NOTE_NOT_AMORTIZABLE", ErrCodeNotAmortizable, http.StatusUnprocessableEntity},
		{"INVALID_INPUT", ErrCodeInvalidInput, http.StatusBadRequest},
		// unmapped rule violations keep their name
		{"FLOW_MISMATCH", "ERR_FLOW_MISMATCH", http.StatusUnprocessableEntity},
		{"INVALID_DOCUMENT_TYPE", "ERR_INVALID_DOCUMENT_TYPE", http.StatusUnprocessableEntity},
		// already normalized
		{ErrCodeForbidden, ErrCodeForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code := NormalizeErrorCode(tt.input)
			assert.Equal(t, tt.expected, code)
			assert.Equal(t, tt.wantStatus, StatusForCode(code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages)
		assert.True(t, resp.Success)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "total_amount", Message: "Must be greater than zero"},
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errInfo := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeValidation, errInfo["code"])
	assert.Equal(t, "req-1", errInfo["request_id"])
	assert.Len(t, errInfo["details"], 1)
}

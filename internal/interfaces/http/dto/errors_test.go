package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInsufficientCredits, http.StatusUnprocessableEntity},
		{ErrCodeAccountNotFound, http.StatusNotFound},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyRefunded, http.StatusConflict},
		{ErrCodeRefundFailed, http.StatusUnprocessableEntity},
		{ErrCodeInvalidAmount, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeInsufficientCredits, NormalizeErrorCode("INSUFFICIENT_CREDITS"))
	assert.Equal(t, ErrCodeAccountNotFound, NormalizeErrorCode("ACCOUNT_NOT_FOUND"))
	assert.Equal(t, ErrCodeAlreadyRefunded, NormalizeErrorCode("ALREADY_REFUNDED"))
	assert.Equal(t, ErrCodeInternal, NormalizeErrorCode("LEDGER_WRITE_FAILED"))
	// Codes already in the API format pass through untouched
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "budget not found", "req-1")
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

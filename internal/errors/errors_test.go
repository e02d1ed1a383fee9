package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig},
		{"store code", ErrCodeInvalidRecord, CategoryStore},
		{"index code", ErrCodeIndexUnavailable, CategoryIndex},
		{"validation code", ErrCodeInvalidField, CategoryValidation},
		{"internal code", ErrCodeInternal, CategoryInternal},
		{"malformed code", "ERR", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "message", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_RetryableOnlyForIndexIO(t *testing.T) {
	assert.True(t, New(ErrCodeIndexUnavailable, "io failure", nil).Retryable)
	assert.True(t, New(ErrCodeIndexLocked, "locked", nil).Retryable)
	assert.False(t, New(ErrCodeNotRegistered, "unknown", nil).Retryable)
	assert.False(t, New(ErrCodeFieldResolution, "missing", nil).Retryable)
}

func TestError_UnwrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := IndexUnavailable("index write failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := NotRegistered("post")
	b := NotRegistered("comment")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, InvalidField("post", "title")))
}

func TestFieldResolution_CarriesEntityAndField(t *testing.T) {
	err := FieldResolution("post", "missing_column")

	assert.Equal(t, "post", err.Details["entity"])
	assert.Equal(t, "missing_column", err.Details["field"])
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.Contains(t, err.Error(), ErrCodeFieldResolution)
}

func TestConfiguration_IsFatal(t *testing.T) {
	err := Configuration("primary key field missing", nil)
	assert.Equal(t, SeverityFatal, err.Severity)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidField, GetCode(InvalidField("post", "body")))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain error")))
}

func TestIsRetryable_PlainErrorIsNot(t *testing.T) {
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(IndexUnavailable("timeout", nil)))
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := NewStoreUnavailableError(errors.New("connection refused"))

	assert.Equal(t, ErrCodeStoreUnavailable, CodeOf(err))
	assert.Equal(t, ErrCodeStoreUnavailable, CodeOf(fmt.Errorf("resolve: %w", err)))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsStoreUnavailable(NewStoreUnavailableError(nil)))
	assert.False(t, IsStoreUnavailable(NewProviderTimeoutError("clova")))
	assert.True(t, IsProviderTimeout(NewProviderTimeoutError("clova")))
}

func TestConstructors(t *testing.T) {
	err := NewProviderUnavailableError("gpt_vision", errors.New("api quota exceeded"))
	assert.Equal(t, ErrCodeProviderUnavailable, err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, "gpt_vision", err.Metadata["provider"])
	assert.Contains(t, err.Details, "quota")
	assert.Contains(t, err.Error(), "PROVIDER_UNAVAILABLE")

	parse := NewProviderParseError("clova", "no images")
	assert.False(t, parse.Retryable)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeStoreUnavailable))
	assert.Equal(t, 3, GetRetryCount(ErrCodeProviderTimeout))
	assert.Equal(t, 1, GetRetryCount(ErrCodeProviderUnavailable))
	assert.Equal(t, 0, GetRetryCount(ErrCodeProviderParseError))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "provider", GetErrorCategory(ErrCodeProviderTimeout))
	assert.Equal(t, "store", GetErrorCategory(ErrCodeStoreUnavailable))
	assert.Equal(t, "cache", GetErrorCategory(ErrCodeCacheError))
	assert.Equal(t, "matching", GetErrorCategory(ErrCodeAmbiguousMatch))
	assert.Equal(t, "internal", GetErrorCategory(ErrorCode("other")))
}

package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeUnauthorized, http.StatusUnauthorized, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false},
		{CodeConfirmationRequired, http.StatusPreconditionRequired, false},
		{CodeRejected, http.StatusBadRequest, false},
		{CodeInternal, http.StatusInternalServerError, true},
		{CodeDependency, http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor(Code("SOMETHING_ELSE")))
}

func TestWrapAndAs(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(CodeDependency, cause, "Network error. Please try again.").WithRedirect("/auth/login")

	wrapped := fmt.Errorf("cart: %w", err)
	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeDependency, typed.Code())
	assert.Equal(t, "Network error. Please try again.", typed.Message())
	assert.Equal(t, "/auth/login", typed.Redirect())
	assert.True(t, stdErrors.Is(wrapped, cause))
	assert.True(t, IsCode(wrapped, CodeDependency))
	assert.False(t, IsCode(wrapped, CodeNotFound))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, CodeInternal, e.Code())
	assert.Empty(t, e.Message())
	assert.Nil(t, e.Details())
	assert.Nil(t, e.WithDetails("x"))
	assert.Nil(t, As(nil))
}

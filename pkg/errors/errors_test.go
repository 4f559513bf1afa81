package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		kind string
		code int
	}{
		{"not found", NotFound("repository", ErrNotFound), IsNotFound, "not_found", http.StatusNotFound},
		{"conflict", Conflict("repository already exists", ErrRepositoryExists), IsConflict, "conflict", http.StatusConflict},
		{"validation", ValidationError("path", "bad path"), IsBadRequest, "validation_error", http.StatusBadRequest},
		{"unauthorized", Unauthorized("", nil), IsUnauthorized, "unauthorized", http.StatusUnauthorized},
		{"upstream", UpstreamError("lookup", nil), IsUpstream, "upstream_error", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("service: %w", tt.err)
			assert.True(t, tt.pred(wrapped))

			var appErr *AppError
			assert.True(t, errors.As(wrapped, &appErr))
			assert.Equal(t, tt.kind, appErr.Kind())
			assert.Equal(t, tt.code, appErr.HTTPStatus())
		})
	}
}

func TestPredicatesFallBackToSentinels(t *testing.T) {
	assert.True(t, IsNotFound(Wrap(ErrNotFound, "lookup")))
	assert.True(t, IsConflict(ErrUserExists))
	assert.True(t, IsUnauthorized(ErrInvalidCredentials))
	assert.True(t, IsUpstream(ErrUpstream))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestUpstreamErrorKeepsCause(t *testing.T) {
	cause := errors.New("rate limited")
	err := UpstreamError("search", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "github search failed: rate limited", err.Error())
	assert.Equal(t, "internal_error", InternalError("", nil).Kind())
}

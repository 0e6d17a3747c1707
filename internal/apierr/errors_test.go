package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus_CanonicalMapping(t *testing.T) {
	tests := []struct {
		status int
		want   *Error
	}{
		{http.StatusBadRequest, InvalidUser},
		{http.StatusUnauthorized, TokenExpired},
		{http.StatusForbidden, InvalidAuth},
		{http.StatusNotFound, NotFound},
		{http.StatusMethodNotAllowed, InvalidPermission},
		{http.StatusRequestTimeout, NoResponse},
		{http.StatusInternalServerError, InternalError},
		{http.StatusNetworkAuthenticationRequired, RequiredAuth},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			got := FromStatus(tt.status, "", nil)
			// same pointer every time
			assert.Same(t, tt.want, got)
			assert.Same(t, got, FromStatus(tt.status, "whatever", map[string]any{"x": 1}))
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestFromStatus_SuccessIsNil(t *testing.T) {
	for _, s := range []int{200, 201, 202, 203} {
		assert.Nil(t, FromStatus(s, "", nil), "status %d", s)
	}
}

func TestFromStatus_AdHoc(t *testing.T) {
	body := map[string]any{"message": "slow down"}
	got := FromStatus(http.StatusTooManyRequests, "Too Many Requests", body)

	require.NotNil(t, got)
	assert.Equal(t, KindOther, got.Kind)
	assert.Equal(t, http.StatusTooManyRequests, got.Status)
	assert.Equal(t, "Too Many Requests", got.Msg)
	assert.Equal(t, body, got.Data)

	other := FromStatus(http.StatusTooManyRequests, "", nil)
	assert.NotSame(t, got, other)
	assert.True(t, errors.Is(got, other))
	assert.False(t, errors.Is(got, FromStatus(http.StatusBadGateway, "", nil)))

	// 204 is not in the pass-through range
	assert.Equal(t, KindOther, FromStatus(http.StatusNoContent, "", nil).Kind)
}

func TestWithDetails_DoesNotMutateCanonical(t *testing.T) {
	d := NoResponse.WithDetails("dial tcp: connection refused")

	assert.Equal(t, "dial tcp: connection refused", d.Details)
	assert.Empty(t, NoResponse.Details)
	assert.NotSame(t, NoResponse, d)
	assert.True(t, errors.Is(d, NoResponse))
	assert.Contains(t, d.Error(), "connection refused")
}

func TestIs_WrappedAndDifferentKinds(t *testing.T) {
	wrapped := fmt.Errorf("list plugins: %w", TokenExpired)

	assert.True(t, errors.Is(wrapped, TokenExpired))
	assert.False(t, errors.Is(wrapped, RequiredAuth))
	assert.False(t, errors.Is(InvalidAuth, errors.New("INVALID_AUTH")))

	var ae *Error
	require.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, KindTokenExpired, ae.Kind)
}

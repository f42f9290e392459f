package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_IsSentinels(t *testing.T) {
	t.Parallel()

	unauth := NewAPI(http.StatusUnauthorized, APIDetails{Code: 401, Message: "Invalid token", UserMessage: "Please log in again"})
	require.ErrorIs(t, unauth, ErrUnauthorized)
	require.NotErrorIs(t, unauth, ErrNotFound)

	require.ErrorIs(t, NewGeneric(http.StatusNotFound, "movie not found"), ErrNotFound)
	require.ErrorIs(t, NewGeneric(http.StatusTooManyRequests, "slow down"), ErrRateLimited)
	require.ErrorIs(t, NewGeneric(http.StatusConflict, "taken"), ErrAlreadyExists)

	exp := SessionExpired(unauth)
	require.ErrorIs(t, exp, ErrSessionExpired)
	require.Equal(t, KindSessionExpired, KindOf(exp))

	wrapped := fmt.Errorf("get movie: %w", exp)
	require.Equal(t, KindSessionExpired, KindOf(wrapped))
}

func TestError_NetworkWrapsCause(t *testing.T) {
	t.Parallel()

	err := NewNetwork(0, "", context.DeadlineExceeded)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, KindNetwork, KindOf(err))
	require.Contains(t, err.Error(), "network error")
}

func TestError_Code(t *testing.T) {
	t.Parallel()

	require.Equal(t, 4011, NewAPI(401, APIDetails{Code: 4011}).Code())
	require.Equal(t, 401, NewAPI(401, APIDetails{}).Code())
	require.Equal(t, 500, NewGeneric(500, "boom").Code())
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api", NewAPI(400, APIDetails{Message: "tech", UserMessage: "Try again"}), "Try again"},
		{"generic", NewGeneric(500, "Internal Server Error"), "Internal Server Error"},
		{"expired", SessionExpired(nil), "Your session has expired. Please log in again."},
		{"validation", Invalid("email", "Please enter a valid email"), "Please enter a valid email"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, UserMessage(tc.err))
		})
	}
}

func TestKindOf_Untagged(t *testing.T) {
	t.Parallel()
	if k := KindOf(errors.New("x")); k != 0 {
		t.Fatalf("kind=%v, want 0", k)
	}
	if Kind(42).String() != "unknown" {
		t.Fatalf("unexpected kind string")
	}
}

func TestValidationError_Is(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("register: %w", Invalid("username", "too short"))
	require.ErrorIs(t, err, ErrValidation)
	require.EqualError(t, err, "register: validation: username: too short")
}

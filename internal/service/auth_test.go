package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/movie-mate/internal/api"
	"github.com/and161185/movie-mate/internal/api/mock"
	"github.com/and161185/movie-mate/internal/cache"
	"github.com/and161185/movie-mate/internal/credstore"
	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/model"
	"github.com/and161185/movie-mate/internal/session"
)

/************ fakes ************/

type fakeAuthAPI struct {
	calls atomic.Int32
	res   model.AuthResponse
	err   error
	last  model.RegisterInput
}

var _ api.AuthAPI = (*fakeAuthAPI)(nil)

func (f *fakeAuthAPI) Login(context.Context, model.LoginInput) (model.AuthResponse, error) {
	f.calls.Add(1)
	return f.res, f.err
}

func (f *fakeAuthAPI) Register(_ context.Context, in model.RegisterInput) (model.AuthResponse, error) {
	f.calls.Add(1)
	f.last = in
	return f.res, f.err
}

func (f *fakeAuthAPI) RefreshToken(context.Context, string) (model.TokenPair, error) {
	return model.TokenPair{}, errors.New("not used")
}

type failingSession struct{ err error }

func (f failingSession) Login(string, string, model.UserProfile) error { return f.err }
func (f failingSession) Logout() error                                 { return f.err }
func (f failingSession) User() (model.UserProfile, bool)               { return model.UserProfile{}, false }

/************ tests ************/

func TestAuth_LoginWithMockBackend_PersistsSession(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemory()
	sess := session.New(store, zaptest.NewLogger(t))
	require.NoError(t, sess.Hydrate())

	c := newCache(t)
	c.Write(cache.K("movies", 1, 10), "left over from another user")

	svc := NewAuthService(mock.New(), sess, c, zaptest.NewLogger(t))
	user, err := svc.Login(context.Background(), "  devuser ", "devpass1")
	require.NoError(t, err)
	require.Equal(t, mock.DevUsername, user.Username)
	require.Equal(t, 0, c.Len(), "cache is dropped on login")

	st := sess.State()
	require.True(t, st.Authenticated())
	require.Equal(t, mock.AccessToken, st.AccessToken)
	require.Equal(t, mock.RefreshToken, st.RefreshToken)
	require.Equal(t, mock.DevUserID, st.User.ID)

	stored, ok, err := credstore.Load(store)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, mock.AccessToken, stored.AccessToken)
	require.Equal(t, mock.RefreshToken, stored.RefreshToken)
	require.Equal(t, mock.DevUsername, stored.User.Username)

	// A restarted client sees the same session.
	again := session.New(store, nil)
	require.NoError(t, again.Hydrate())
	require.Equal(t, st.AccessToken, again.State().AccessToken)
	require.Equal(t, st.RefreshToken, again.State().RefreshToken)
	require.Equal(t, *st.User, *again.State().User)
}

func TestAuth_Login_ValidationSkipsBackend(t *testing.T) {
	t.Parallel()

	fa := &fakeAuthAPI{}
	svc := NewAuthService(fa, session.New(credstore.NewMemory(), nil), nil, nil)

	for _, tc := range []struct{ id, pw string }{
		{"", "devpass1"},
		{"devuser", ""},
		{"de", "devpass1"},
		{"devuser", "12345"},
	} {
		_, err := svc.Login(context.Background(), tc.id, tc.pw)
		require.ErrorIs(t, err, errs.ErrValidation, "%q/%q", tc.id, tc.pw)
	}
	require.Equal(t, int32(0), fa.calls.Load())
}

func TestAuth_Login_BackendErrorLeavesSessionEmpty(t *testing.T) {
	t.Parallel()

	boom := errs.NewAPI(401, errs.APIDetails{Code: 401, Message: "Bad credentials", UserMessage: "Wrong username or password"})
	fa := &fakeAuthAPI{err: boom}
	store := credstore.NewMemory()
	sess := session.New(store, nil)
	svc := NewAuthService(fa, sess, nil, nil)

	_, err := svc.Login(context.Background(), "devuser", "wrongpass")
	require.Same(t, boom, err)
	require.False(t, sess.State().Authenticated())
	require.Equal(t, 0, store.Len())
}

func TestAuth_Login_SessionFailure(t *testing.T) {
	t.Parallel()

	disk := errors.New("disk full")
	svc := NewAuthService(mock.New(), failingSession{err: disk}, nil, nil)
	_, err := svc.Login(context.Background(), "devuser", "devpass1")
	require.ErrorIs(t, err, disk)
}

func TestAuth_Register_NormalizesAndValidates(t *testing.T) {
	t.Parallel()

	fa := &fakeAuthAPI{res: model.AuthResponse{AccessToken: "a", RefreshToken: "r", User: model.UserProfile{ID: "u1", Username: "newbie"}}}
	sess := session.New(credstore.NewMemory(), nil)
	svc := NewAuthService(fa, sess, nil, nil)

	_, err := svc.Register(context.Background(), model.RegisterInput{Username: "newbie", Email: "nope", Password: "secret1", PhoneNumber: "+4915112345678"})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, int32(0), fa.calls.Load())

	user, err := svc.Register(context.Background(), model.RegisterInput{
		Username: " newbie ", Email: " new@movie-mate.com", Password: " secret1", PhoneNumber: "+4915112345678 ",
	})
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, model.RegisterInput{Username: "newbie", Email: "new@movie-mate.com", Password: " secret1", PhoneNumber: "+4915112345678"}, fa.last)
	require.Equal(t, "a", sess.AccessToken())
}

func TestAuth_Logout_ClearsSessionStoreAndCache(t *testing.T) {
	t.Parallel()

	store := credstore.NewMemory()
	sess := session.New(store, nil)
	c := newCache(t)
	svc := NewAuthService(mock.New(), sess, c, nil)

	_, err := svc.Login(context.Background(), "dev@movie-mate.com", "devpass1")
	require.NoError(t, err)
	c.Write(cache.K("watchlists", "devuser", 1, 10), model.EmptyPage[model.Watchlist](10))

	require.NoError(t, svc.Logout())
	require.False(t, sess.State().Authenticated())
	require.Equal(t, 0, store.Len())
	require.Equal(t, 0, c.Len())
}

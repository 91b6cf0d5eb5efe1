package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auction-marketplace/internal/logging"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/repository/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager(t *testing.T) (*SessionManager, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.New()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewSessionManager(store.Users(), store.Sessions(), DefaultSessionTTL, logging.Discard())
	m.Now = clock.Now
	return m, store, clock
}

func cookieHeader(res *AuthResult) string {
	return SessionCookieName + "=" + res.Token
}

func TestSignup_CreatesUserAndSession(t *testing.T) {
	m, store, clock := newManager(t)
	ctx := context.Background()

	res, err := m.Signup(ctx, "  A@X.com ", "password1")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", res.User.Email)
	assert.NotContains(t, res.User.PasswordHash, "password1")
	assert.True(t, strings.HasPrefix(res.User.PasswordHash, "scrypt$"))
	assert.Equal(t, clock.Now().Add(30*24*time.Hour), res.ExpiresAt)
	assert.Contains(t, res.Cookie, "session="+res.Token)
	assert.Contains(t, res.Cookie, "Max-Age=2592000")
	assert.Equal(t, 1, store.Sessions().Count())

	p, err := m.CurrentUser(ctx, cookieHeader(res))
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: res.User.ID, Email: "a@x.com"}, p)
}

func TestSignup_Validation(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Signup(ctx, "no-at-sign", "password1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Invalid email", err.Error())

	_, err = m.Signup(ctx, "   ", "password1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = m.Signup(ctx, "a@x.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Password must be at least 8 characters", err.Error())
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Signup(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	_, err = m.Signup(ctx, "A@X.COM", "password2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Email already in use", err.Error())
}

func TestLogin(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Signup(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	res, err := m.Login(ctx, "A@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)

	_, wrongPw := m.Login(ctx, "a@x.com", "wrong")
	_, noUser := m.Login(ctx, "nobody@x.com", "password1")
	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())

	_, err = m.Login(ctx, "not-an-email", "password1")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurrentUser_ExpiresLazily(t *testing.T) {
	m, _, clock := newManager(t)
	ctx := context.Background()

	res, err := m.Signup(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	clock.Advance(DefaultSessionTTL - time.Second)
	p, err := m.CurrentUser(ctx, cookieHeader(res))
	require.NoError(t, err)
	assert.True(t, p.Authenticated())

	clock.Advance(time.Second)
	p, err = m.CurrentUser(ctx, cookieHeader(res))
	require.NoError(t, err)
	assert.False(t, p.Authenticated())
	assert.Equal(t, Anonymous, p)
}

func TestCurrentUser_NoOrUnknownCookie(t *testing.T) {
	m, _, _ := newManager(t)
	ctx := context.Background()

	for _, h := range []string{"", "other=1", "session=", "session=unknown-token"} {
		p, err := m.CurrentUser(ctx, h)
		require.NoError(t, err)
		assert.False(t, p.Authenticated(), h)
	}
}

func TestLogout_IsIdempotent(t *testing.T) {
	m, store, _ := newManager(t)
	ctx := context.Background()

	res, err := m.Signup(ctx, "a@x.com", "password1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		tomb, err := m.Logout(ctx, cookieHeader(res))
		require.NoError(t, err)
		assert.Contains(t, tomb, "session=;")
		assert.Contains(t, tomb, "Max-Age=0")

		p, err := m.CurrentUser(ctx, cookieHeader(res))
		require.NoError(t, err)
		assert.False(t, p.Authenticated())
	}
	assert.Equal(t, 0, store.Sessions().Count())

	tomb, err := m.Logout(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, tomb, "Max-Age=0")
}

func TestLogin_PurgesExpiredSessions(t *testing.T) {
	m, store, clock := newManager(t)
	ctx := context.Background()

	_, err := m.Signup(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	require.Equal(t, 1, store.Sessions().Count())

	clock.Advance(DefaultSessionTTL + time.Hour)
	_, err = m.Login(ctx, "a@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Sessions().Count())
}

type failingSessions struct {
	SessionStore
	err error
}

func (f failingSessions) Resolve(context.Context, string, time.Time) (string, error) {
	return "", f.err
}

func (f failingSessions) Delete(context.Context, string) error { return f.err }

func TestCurrentUser_StoreErrorPropagates(t *testing.T) {
	store := memory.New()
	boom := errors.New("db down")
	m := NewSessionManager(store.Users(), failingSessions{SessionStore: store.Sessions(), err: boom}, 0, logging.Discard())

	_, err := m.CurrentUser(context.Background(), "session=abc")
	assert.ErrorIs(t, err, boom)

	tomb, err := m.Logout(context.Background(), "session=abc")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, tomb, "Max-Age=0")
}

func TestCurrentUser_DeletedUserIsAnonymous(t *testing.T) {
	store := memory.New()
	m := NewSessionManager(store.Users(), store.Sessions(), 0, logging.Discard())
	ctx := context.Background()

	require.NoError(t, store.Sessions().Create(ctx, &model.Session{
		ID: "s1", UserID: "ghost", Token: "tok", ExpiresAt: time.Now().Add(time.Hour),
	}))
	p, err := m.CurrentUser(ctx, "session=tok")
	require.NoError(t, err)
	assert.Equal(t, Anonymous, p)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/auction-marketplace/internal/logging"
	"github.com/iliyamo/auction-marketplace/internal/model"
	"github.com/iliyamo/auction-marketplace/internal/repository"
	"github.com/iliyamo/auction-marketplace/internal/utils"
)

const (
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "session"
	// DefaultSessionTTL is how long a new session stays valid (30 days).
	DefaultSessionTTL = 30 * 24 * time.Hour
	// MinPasswordLength is the shortest password accepted at signup.
	MinPasswordLength = 8
)

// UserStore is the user persistence needed by SessionManager.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// SessionStore is the session persistence needed by SessionManager.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	Resolve(ctx context.Context, token string, now time.Time) (string, error)
	Delete(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}

// Principal is the identity a request acts as.  The zero value is the
// anonymous principal.
type Principal struct {
	UserID string
	Email  string
}

// Anonymous is the principal of a request without a valid session.
var Anonymous = Principal{}

// Authenticated reports whether p belongs to a signed-in user.
func (p Principal) Authenticated() bool { return p.UserID != "" }

// AuthResult is returned by Login and Signup.
type AuthResult struct {
	User      *model.User
	Token     string
	Cookie    string // Set-Cookie header value
	ExpiresAt time.Time
}

// SessionManager implements signup, login, logout and per-request
// principal resolution on top of the user and session stores.  It keeps
// no state of its own; every check goes to the store.
type SessionManager struct {
	Users    UserStore
	Sessions SessionStore
	TTL      time.Duration
	Log      logging.Logger
	Now      func() time.Time
}

func NewSessionManager(users UserStore, sessions SessionStore, ttl time.Duration, log logging.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{Users: users, Sessions: sessions, TTL: ttl, Log: log, Now: time.Now}
}

func (m *SessionManager) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}

// normalizeEmail trims and lower-cases raw and checks its shape.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" || !strings.Contains(email, "@") {
		return "", invalidInput("Invalid email")
	}
	return strings.ToLower(email), nil
}

// Login verifies the credentials and opens a new session.  An unknown
// email and a wrong password produce the same ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := m.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			m.Log.Warn(ctx, "login rejected")
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		m.Log.Warn(ctx, "login rejected")
		return nil, errBadCredentials
	}
	return m.openSession(ctx, u)
}

// Signup creates a user and opens a session for it.  Email uniqueness is
// left to the store's unique index; a duplicate becomes ErrConflict.
func (m *SessionManager) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, invalidInput(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           utils.NewID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    m.now(),
	}
	if err := m.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, errEmailInUse
		}
		return nil, err
	}
	m.Log.Info(ctx, "user signed up", "user_id", u.ID)
	return m.openSession(ctx, u)
}

func (m *SessionManager) openSession(ctx context.Context, u *model.User) (*AuthResult, error) {
	now := m.now()
	if n, err := m.Sessions.PurgeExpired(ctx, u.ID, now); err != nil {
		m.Log.Warn(ctx, "purge expired sessions failed", "user_id", u.ID, "error", err)
	} else if n > 0 {
		m.Log.Info(ctx, "purged expired sessions", "user_id", u.ID, "count", n)
	}

	token, err := utils.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s := &model.Session{
		ID:        utils.NewID(),
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: now.Add(m.TTL),
		CreatedAt: now,
	}
	if err := m.Sessions.Create(ctx, s); err != nil {
		return nil, err
	}
	return &AuthResult{
		User:      u,
		Token:     token,
		Cookie:    m.SessionCookie(token),
		ExpiresAt: s.ExpiresAt,
	}, nil
}

// SessionCookie returns the Set-Cookie value carrying token.
func (m *SessionManager) SessionCookie(token string) string {
	return utils.EncodeCookie(SessionCookieName, token, utils.CookieOptions{
		MaxAge: utils.MaxAge(int(m.TTL / time.Second)),
		Path:   "/",
	})
}

// TokenFromCookieHeader extracts the session token from a Cookie header.
func TokenFromCookieHeader(header string) string {
	return utils.DecodeCookies(header)[SessionCookieName]
}

// Logout deletes the session named by the Cookie header, if any, and
// returns the tombstone Set-Cookie value.  The tombstone is returned even
// when the delete fails.
func (m *SessionManager) Logout(ctx context.Context, cookieHeader string) (string, error) {
	tombstone := utils.TombstoneCookie(SessionCookieName, "/")
	token := TokenFromCookieHeader(cookieHeader)
	if token == "" {
		return tombstone, nil
	}
	if err := m.Sessions.Delete(ctx, token); err != nil {
		return tombstone, err
	}
	return tombstone, nil
}

// CurrentUser resolves the principal for a Cookie header.  A missing,
// unknown or expired session yields Anonymous with a nil error; only store
// failures are errors.
func (m *SessionManager) CurrentUser(ctx context.Context, cookieHeader string) (Principal, error) {
	token := TokenFromCookieHeader(cookieHeader)
	if token == "" {
		return Anonymous, nil
	}
	userID, err := m.Sessions.Resolve(ctx, token, m.now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Anonymous, nil
		}
		return Anonymous, err
	}
	u, err := m.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Anonymous, nil
		}
		return Anonymous, err
	}
	return Principal{UserID: u.ID, Email: u.Email}, nil
}

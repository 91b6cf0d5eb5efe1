package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/auction-marketplace/internal/model"
)

// SessionRepo persists session rows keyed by their opaque token.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES (?,?,?,?,?)",
		s.ID, s.UserID, s.Token, s.ExpiresAt.UTC(), s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Resolve returns the owning user id of token if the session has not
// expired at now.  The expiry filter runs in the query, so an expired row
// yields ErrSessionNotFound just like a missing one.
func (r *SessionRepo) Resolve(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM sessions WHERE token=? AND expires_at > ? LIMIT 1",
		token, now.UTC()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}
	return userID, nil
}

// Delete removes the session with token.  Deleting an unknown token is
// not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE token=?", token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes userID's sessions that expired at or before now
// and returns how many rows went away.
func (r *SessionRepo) PurgeExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id=? AND expires_at <= ?",
		userID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

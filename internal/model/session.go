package model

import "time"

// Session models a row in the `sessions` table.  A session is valid only
// while ExpiresAt is in the future; an expired row is treated exactly like
// a missing one.  Rows are removed by logout, by the expired-row purge on
// login/signup, or by cascade when the owning user is deleted.
type Session struct {
    ID        string    // sessions.id
    UserID    string    // sessions.user_id
    Token     string    // sessions.token (opaque, unique)
    ExpiresAt time.Time // sessions.expires_at
    CreatedAt time.Time // sessions.created_at
}

// Valid reports whether the session is still usable at now.
func (s Session) Valid(now time.Time) bool {
    return s.ExpiresAt.After(now)
}

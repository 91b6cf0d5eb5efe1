package model

import "time"

// User represents an account as stored in the `users` table.  Users are
// created once at signup and never updated by the service.
//
// Fields:
//  ID          : random UUID assigned at signup.
//  Email       : unique address, trimmed and lower-cased.
//  PasswordHash: encoded scrypt hash (scheme$N$r$p$salt$key).
//  CreatedAt   : timestamp of creation.
type User struct {
    ID           string    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    CreatedAt    time.Time // users.created_at
}

package utils

import (
    "crypto/rand"
    "encoding/base64"

    "github.com/google/uuid"
)

// sessionTokenBytes is the entropy of a session token before encoding.
const sessionTokenBytes = 32

// NewSessionToken returns an opaque session token: 32 bytes from
// crypto/rand, URL-safe base64 without padding (43 characters).
// Uniqueness is backed by the UNIQUE constraint on sessions.token.
func NewSessionToken() (string, error) {
    buf := make([]byte, sessionTokenBytes)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewID returns a random (version 4) UUID string.  It is used for user,
// session and item primary keys and as the request id generator.
func NewID() string {
    return uuid.NewString()
}

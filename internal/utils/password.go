package utils // package utils provides helpers for password hashing, tokens and cookies

import (
    "crypto/rand"   // secure random salt generation
    "crypto/subtle" // constant-time comparison of derived keys
    "encoding/base64"
    "errors"
    "fmt"
    "strconv"
    "strings"

    "golang.org/x/crypto/scrypt" // memory-hard key derivation function
)

// SchemeScrypt is the only scheme tag this package knows how to verify.
const SchemeScrypt = "scrypt"

// Work parameters for new hashes.  N=2^14, r=8, p=1 costs ~16 MiB of memory
// and a few tens of milliseconds per hash on commodity hardware.
const (
    scryptN      = 16384
    scryptR      = 8
    scryptP      = 1
    scryptKeyLen = 32
    saltLen      = 16
)

// Upper bounds accepted when verifying a stored hash.  A row carrying
// absurd parameters must not be able to pin a request on a multi-GiB
// derivation.
const (
    maxScryptN = 1 << 20
    maxScryptR = 32
    maxScryptP = 16
)

var (
    // ErrMalformedHash is returned when an encoded hash does not have the
    // six `$`-separated fields or one of them cannot be decoded.
    ErrMalformedHash = errors.New("malformed password hash")
    // ErrUnknownScheme is returned for a well-formed hash whose scheme tag
    // is not SchemeScrypt.
    ErrUnknownScheme = errors.New("unknown password hash scheme")
)

var b64 = base64.RawURLEncoding

// PasswordHash is the decoded form of a stored password hash:
//
//	scrypt$N$r$p$<salt b64url>$<key b64url>
type PasswordHash struct {
    Scheme string
    N      int
    R      int
    P      int
    Salt   []byte
    Key    []byte
}

// String encodes h into its self-describing storage form.
func (h PasswordHash) String() string {
    return strings.Join([]string{
        h.Scheme,
        strconv.Itoa(h.N),
        strconv.Itoa(h.R),
        strconv.Itoa(h.P),
        b64.EncodeToString(h.Salt),
        b64.EncodeToString(h.Key),
    }, "$")
}

// ParsePasswordHash decodes and validates a stored hash.  Unknown schemes
// are rejected with ErrUnknownScheme; every other defect is ErrMalformedHash.
func ParsePasswordHash(encoded string) (PasswordHash, error) {
    parts := strings.Split(encoded, "$")
    if len(parts) != 6 {
        return PasswordHash{}, fmt.Errorf("%w: want 6 fields, got %d", ErrMalformedHash, len(parts))
    }
    if parts[0] != SchemeScrypt {
        return PasswordHash{}, fmt.Errorf("%w: %q", ErrUnknownScheme, parts[0])
    }
    n, errN := strconv.Atoi(parts[1])
    r, errR := strconv.Atoi(parts[2])
    p, errP := strconv.Atoi(parts[3])
    if errN != nil || errR != nil || errP != nil {
        return PasswordHash{}, fmt.Errorf("%w: bad work parameters", ErrMalformedHash)
    }
    if n < 2 || n > maxScryptN || n&(n-1) != 0 || r < 1 || r > maxScryptR || p < 1 || p > maxScryptP {
        return PasswordHash{}, fmt.Errorf("%w: work parameters out of range", ErrMalformedHash)
    }
    salt, err := b64.DecodeString(parts[4])
    if err != nil || len(salt) < saltLen {
        return PasswordHash{}, fmt.Errorf("%w: bad salt", ErrMalformedHash)
    }
    key, err := b64.DecodeString(parts[5])
    if err != nil {
        return PasswordHash{}, fmt.Errorf("%w: bad key", ErrMalformedHash)
    }
    if len(key) != scryptKeyLen {
        return PasswordHash{}, fmt.Errorf("%w: key length %d", ErrMalformedHash, len(key))
    }
    return PasswordHash{Scheme: SchemeScrypt, N: n, R: r, P: p, Salt: salt, Key: key}, nil
}

// HashPassword derives a salted scrypt hash and returns its encoded form.
// Two calls with the same password yield different strings.
func HashPassword(plain string) (string, error) {
    salt := make([]byte, saltLen)
    if _, err := rand.Read(salt); err != nil {
        return "", err
    }
    key, err := scrypt.Key([]byte(plain), salt, scryptN, scryptR, scryptP, scryptKeyLen)
    if err != nil {
        return "", err
    }
    return PasswordHash{Scheme: SchemeScrypt, N: scryptN, R: scryptR, P: scryptP, Salt: salt, Key: key}.String(), nil
}

// VerifyPassword reports whether plain matches the encoded hash.  It never
// panics and returns false for any hash it cannot parse.
func VerifyPassword(encoded, plain string) bool {
    h, err := ParsePasswordHash(encoded)
    if err != nil {
        return false
    }
    got, err := scrypt.Key([]byte(plain), h.Salt, h.N, h.R, h.P, len(h.Key))
    if err != nil || len(got) != len(h.Key) {
        return false
    }
    return subtle.ConstantTimeCompare(got, h.Key) == 1
}

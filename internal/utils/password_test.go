package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	h, err := HashPassword("password1")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(h, "password1"))
	assert.False(t, VerifyPassword(h, "password2"))
	assert.False(t, VerifyPassword(h, ""))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword(h1, "same-password"))
	assert.True(t, VerifyPassword(h2, "same-password"))
}

func TestHashPassword_Format(t *testing.T) {
	h, err := HashPassword("pässwörd ✓")
	require.NoError(t, err)

	parts := strings.Split(h, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "scrypt", parts[0])
	assert.Equal(t, "16384", parts[1])
	assert.Equal(t, "8", parts[2])
	assert.Equal(t, "1", parts[3])

	parsed, err := ParsePasswordHash(h)
	require.NoError(t, err)
	assert.Len(t, parsed.Salt, 16)
	assert.Len(t, parsed.Key, 32)
	assert.Equal(t, h, parsed.String())
	assert.True(t, VerifyPassword(h, "pässwörd ✓"))
}

func TestVerifyPassword_MalformedNeverPanics(t *testing.T) {
	good, err := HashPassword("password1")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	cases := map[string]string{
		"empty":           "",
		"wrong scheme":    "bcrypt$" + strings.Join(parts[1:], "$"),
		"too few fields":  strings.Join(parts[:5], "$"),
		"too many fields": good + "$extra",
		"truncated b64":   strings.Join(append(parts[:5:5], parts[5][:len(parts[5])-1]+"*"), "$"),
		"bad N":           "scrypt$abc$8$1$" + parts[4] + "$" + parts[5],
		"N not pow2":      "scrypt$1000$8$1$" + parts[4] + "$" + parts[5],
		"huge N":          "scrypt$1073741824$8$1$" + parts[4] + "$" + parts[5],
		"zero p":          "scrypt$16384$8$0$" + parts[4] + "$" + parts[5],
		"empty key":       "scrypt$16384$8$1$" + parts[4] + "$",
		"shortened key":   "scrypt$16384$8$1$" + parts[4] + "$" + parts[5][:10],
	}
	for name, enc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, VerifyPassword(enc, "password1"))
			})
		})
	}
}

func TestParsePasswordHash_Errors(t *testing.T) {
	_, err := ParsePasswordHash("argon2id$1$2$3$AAAA$AAAA")
	assert.ErrorIs(t, err, ErrUnknownScheme)

	_, err = ParsePasswordHash("scrypt$16384$8$1$AAAA")
	assert.ErrorIs(t, err, ErrMalformedHash)

	_, err = ParsePasswordHash("scrypt$16384$8$1$!!!!$AAAA")
	assert.ErrorIs(t, err, ErrMalformedHash)
}

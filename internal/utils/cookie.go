package utils

import (
    "net/url"
    "strconv"
    "strings"
)

// CookieOptions controls the attributes of an encoded Set-Cookie value.
// A nil MaxAge produces a session-lifetime cookie.
type CookieOptions struct {
    MaxAge *int
    Path   string
}

// MaxAge is a small helper for building CookieOptions literals.
func MaxAge(seconds int) *int { return &seconds }

// EncodeCookie builds a Set-Cookie header value.  The value is
// percent-encoded and the cookie is always HttpOnly, SameSite=Lax and
// Secure.
func EncodeCookie(name, value string, opts CookieOptions) string {
    path := opts.Path
    if path == "" {
        path = "/"
    }
    attrs := []string{
        name + "=" + escapeCookieValue(value),
        "HttpOnly",
        "SameSite=Lax",
        "Secure",
        "Path=" + path,
    }
    if opts.MaxAge != nil {
        attrs = append(attrs, "Max-Age="+strconv.Itoa(*opts.MaxAge))
    }
    return strings.Join(attrs, "; ")
}

// TombstoneCookie returns a Set-Cookie value that makes the client drop
// the named cookie immediately.
func TombstoneCookie(name, path string) string {
    if path == "" {
        path = "/"
    }
    return name + "=; Path=" + path + "; Max-Age=0; HttpOnly; SameSite=Lax; Secure"
}

// DecodeCookies parses a Cookie request header into a name→value map.
// Parts without '=' and parts whose value is not valid percent-encoding
// are skipped; a repeated name keeps its last value.
func DecodeCookies(header string) map[string]string {
    out := map[string]string{}
    if header == "" {
        return out
    }
    for _, part := range strings.Split(header, ";") {
        k, v, ok := strings.Cut(part, "=")
        if !ok {
            continue
        }
        k = strings.TrimSpace(k)
        if k == "" {
            continue
        }
        val, err := url.PathUnescape(strings.TrimSpace(v))
        if err != nil {
            continue
        }
        out[k] = val
    }
    return out
}

// escapeCookieValue percent-encodes everything outside the unreserved set.
// QueryEscape writes spaces as '+', which PathUnescape would not reverse.
func escapeCookieValue(v string) string {
    return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

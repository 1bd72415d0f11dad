package auth

import "strings"

// Verifier turns a raw token into an Identity.
type Verifier interface {
	Verify(raw string) (Identity, error)
}

// Gate is the access-control entry point for protected routes.
type Gate struct {
	v Verifier
}

// NewGate returns a Gate backed by v.
func NewGate(v Verifier) *Gate { return &Gate{v: v} }

// Authorize inspects an Authorization header value. The expected shape is
// "Bearer <token>" with a case-insensitive scheme. An absent header, a
// missing token segment, or another scheme is ErrMissingCredential; a token
// that fails verification is ErrInvalidCredential.
func (g *Gate) Authorize(header string) (Identity, error) {
	raw, ok := ExtractBearer(header)
	if !ok {
		return Identity{}, ErrMissingCredential
	}
	return g.v.Verify(raw)
}

// ExtractBearer returns the token part of a bearer Authorization value.
func ExtractBearer(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", false
	}
	return tok, true
}

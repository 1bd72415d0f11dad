// Package auth implements credential issuance and verification for the
// marketplace API. A credential is an HS256-signed JWT whose claims carry the
// caller's identity; the Gate turns an Authorization header value into a
// typed Identity or one of two failure kinds (missing vs invalid), and
// RequireOwner performs the path-ownership check on scoped updates.
package auth

import "errors"

// Role is the account kind bound into a credential at issuance.
type Role string

const (
	RoleUser         Role = "user"
	RoleProfessional Role = "professional"
)

// ParseRole maps a raw role string to a Role. The empty string defaults to
// RoleUser; anything else outside the known set is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleProfessional:
		return RoleProfessional, nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleProfessional }

// Identity is the verified caller. All fields are populated on success.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

var (
	// ErrMissingCredential means no bearer token was presented (HTTP 401).
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential means a token was presented but did not verify:
	// bad signature, malformed, expired, or incomplete claims (HTTP 403).
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrForbidden means the identity is valid but may not act on the target.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownRole is returned by ParseRole.
	ErrUnknownRole = errors.New("unknown role")
)

// RequireOwner fails with ErrForbidden unless the identity owns ownerID.
func RequireOwner(id Identity, ownerID string) error {
	if id.ID == "" || id.ID != ownerID {
		return ErrForbidden
	}
	return nil
}

// RequireRole fails with ErrForbidden unless the identity has one of roles.
func RequireRole(id Identity, roles ...Role) error {
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

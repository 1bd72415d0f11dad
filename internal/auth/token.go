package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload. UserID is serialized as "id" so existing
// clients that decode the token body keep working.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 credentials.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokens returns a Tokens bound to secret. Issued tokens expire after ttl.
func NewTokens(secret string, ttl time.Duration, issuer string) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Issue signs a credential for id. The role is fixed for the token's life;
// profile changes produce a new token rather than mutating this one.
func (t *Tokens) Issue(id Identity) (string, error) {
	if id.ID == "" || !id.Role.Valid() {
		return "", fmt.Errorf("issue token: incomplete identity")
	}
	now := t.now()
	claims := Claims{
		UserID: id.ID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates raw. Any failure, including a token that is
// well signed but lacks a required claim, yields ErrInvalidCredential.
func (t *Tokens) Verify(raw string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if claims.UserID == "" || claims.Email == "" || claims.Name == "" {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, errMissingClaim)
	}
	if !claims.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredential, ErrUnknownRole)
	}
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return Identity{}, fmt.Errorf("%w: subject mismatch", ErrInvalidCredential)
	}

	return Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}, nil
}

var errMissingClaim = errors.New("required claim missing")

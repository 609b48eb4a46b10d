// Package auth validates admin bearer tokens for the operational endpoints.
//
// netzstatus has no end users: the public surface is unauthenticated and
// read-only. The only protected operations are the admin ones (forcing a
// refresh, wiping stored preferences), which are guarded by a single
// HS256-signed JWT issued out of band.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Predefined token errors.
var (
	ErrInvalidToken = errors.New("invalid admin token")
	ErrTokenExpired = errors.New("admin token has expired")
	ErrNotAdmin     = errors.New("token does not carry the admin scope")
)

// AdminScope is the scope claim value required on admin tokens.
const AdminScope = "admin"

// AdminClaims are the claims expected on admin tokens.
type AdminClaims struct {
	jwt.RegisteredClaims

	// Scope must equal AdminScope for the token to be accepted.
	Scope string `json:"scope"`
}

// AdminVerifier validates admin bearer tokens.
type AdminVerifier struct {
	signingKey []byte
	issuer     string
	audience   string
}

// AdminConfig holds configuration for the admin verifier.
type AdminConfig struct {
	// SigningKey is the shared secret admin tokens are signed with.
	SigningKey string

	// Issuer is the expected issuer claim (e.g. "https://api.netzstatus.de").
	Issuer string

	// Audience is the expected audience claim (e.g. "netzstatus-admin").
	Audience string
}

// NewAdminVerifier creates a verifier for admin tokens.
func NewAdminVerifier(cfg AdminConfig) *AdminVerifier {
	return &AdminVerifier{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

// Verify validates an admin token string and returns its claims.
func (v *AdminVerifier) Verify(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != AdminScope {
		return nil, ErrNotAdmin
	}

	return claims, nil
}

// Sign issues an admin token. It exists for tooling and tests; the API
// server itself only ever verifies.
func (v *AdminVerifier) Sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{v.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
		},
		Scope: AdminScope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing admin token: %w", err)
	}
	return signed, nil
}

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netzstatus/netzstatus/internal/auth"
)

func newVerifier() *auth.AdminVerifier {
	return auth.NewAdminVerifier(auth.AdminConfig{
		SigningKey: "test-signing-key-at-least-32-bytes!",
		Issuer:     "https://api.netzstatus.test",
		Audience:   "netzstatus-admin",
	})
}

func TestAdminVerifier_RoundTrip(t *testing.T) {
	v := newVerifier()

	token, err := v.Sign("ops@netzstatus", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@netzstatus", claims.Subject)
	assert.Equal(t, auth.AdminScope, claims.Scope)
}

func TestAdminVerifier_Expired(t *testing.T) {
	v := newVerifier()

	token, err := v.Sign("ops@netzstatus", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestAdminVerifier_WrongKey(t *testing.T) {
	other := auth.NewAdminVerifier(auth.AdminConfig{
		SigningKey: "a-completely-different-signing-key",
		Issuer:     "https://api.netzstatus.test",
		Audience:   "netzstatus-admin",
	})

	token, err := other.Sign("ops@netzstatus", time.Hour)
	require.NoError(t, err)

	_, err = newVerifier().Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAdminVerifier_WrongAudience(t *testing.T) {
	other := auth.NewAdminVerifier(auth.AdminConfig{
		SigningKey: "test-signing-key-at-least-32-bytes!",
		Issuer:     "https://api.netzstatus.test",
		Audience:   "some-other-service",
	})

	token, err := other.Sign("ops@netzstatus", time.Hour)
	require.NoError(t, err)

	_, err = newVerifier().Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAdminVerifier_GarbageToken(t *testing.T) {
	_, err := newVerifier().Verify("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

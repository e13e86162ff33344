package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("s3cret", "jobalert")

	tok, err := m.Issue("ops@example.com", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("s3cret", "jobalert")

	other, err := NewTokenManager("different", "jobalert").Issue("x", "admin", time.Hour)
	require.NoError(t, err)
	_, err = m.Verify(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewTokenManager("s3cret", "someone-else").Issue("x", "admin", time.Hour)
	require.NoError(t, err)
	_, err = m.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	past := NewTokenManager("s3cret", "jobalert")
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := past.Issue("x", "admin", time.Hour)
	require.NoError(t, err)
	_, err = m.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "x",
			Issuer:   "jobalert",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = m.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager("", "").Verify("anything")
	assert.ErrorIs(t, err, ErrNoSecret)
}

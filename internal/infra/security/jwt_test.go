package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	token, err := svc.GenerateToken("owner-1")
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "owner-1", claims.OwnerID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestJWTService_NoExpiration(t *testing.T) {
	svc := NewJWTService("secret", 0)

	token, err := svc.GenerateToken("owner-1")
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.True(t, claims.ExpiresAt.IsZero())
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret", time.Hour).GenerateToken("owner-1")
	require.NoError(t, err)

	_, err = NewJWTService("other", time.Hour).ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := svc.GenerateToken("owner-1")
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Minute).ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "owner-1"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Hour).ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RequiresOwner(t *testing.T) {
	_, err := NewJWTService("secret", time.Hour).GenerateToken("")
	require.Error(t, err)
}

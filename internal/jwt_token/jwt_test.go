package jwttoken_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "regoffice/internal/jwt_token"
)

const signingKey = "test-signing-key"

func signToken(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	validator, err := jwttoken.NewValidator(signingKey)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, signingKey, jwt.MapClaims{
			"sub":  "agent-7",
			"role": "back-office",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		claims, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "agent-7", claims.UserID)
		assert.Equal(t, "back-office", claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, signingKey, jwt.MapClaims{
			"sub": "agent-7",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(token)
		require.ErrorIs(t, err, jwttoken.ErrExpiredToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := signToken(t, "some-other-key", jwt.MapClaims{
			"sub": "agent-7",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(token)
		require.ErrorIs(t, err, jwttoken.ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, signingKey, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		_, err := validator.ValidateToken(token)
		require.ErrorIs(t, err, jwttoken.ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := validator.ValidateToken("not.a.token")
		require.ErrorIs(t, err, jwttoken.ErrInvalidToken)
	})
}

func TestNewValidatorRequiresKey(t *testing.T) {
	_, err := jwttoken.NewValidator("")
	require.Error(t, err)
}

package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiturprep/abitur-backend/internal/config"
)

func newTestAuthService(secret string) *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  secret,
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // minimum cost keeps the test fast
	}, nil)
}

func signTestToken(t *testing.T, secret string, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestPasswordHashRoundtrip(t *testing.T) {
	svc := newTestAuthService("secret")

	hash, err := svc.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, svc.CheckPassword(hash, "correct horse battery staple"))
	assert.ErrorIs(t, svc.CheckPassword(hash, "wrong password"), ErrInvalidCredentials)
}

func TestValidateTokenAcceptsOwnSignature(t *testing.T) {
	svc := newTestAuthService("secret")
	userID := uuid.New()

	token := signTestToken(t, "secret", userID, time.Now().Add(time.Hour))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService("secret")

	token := signTestToken(t, "other-secret", uuid.New(), time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := newTestAuthService("secret")

	token := signTestToken(t, "secret", uuid.New(), time.Now().Add(-time.Minute))

	_, err := svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService("secret")

	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

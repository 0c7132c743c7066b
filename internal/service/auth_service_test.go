package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecoschool/ecoschool-api/internal/models"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc := NewAuthService(nil, zap.NewNop(), AuthConfig{
		Password:   "schooladmin",
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
	})

	resp, err := svc.Login(models.LoginRequest{Password: "schooladmin"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(nil, zap.NewNop(), AuthConfig{
		Password:  "schooladmin",
		JWTSecret: "test-secret",
	})

	_, err := svc.Login(models.LoginRequest{Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginEmptyPassword(t *testing.T) {
	svc := NewAuthService(nil, zap.NewNop(), AuthConfig{
		Password:  "schooladmin",
		JWTSecret: "test-secret",
	})

	_, err := svc.Login(models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceBcryptHashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := NewAuthService(nil, zap.NewNop(), AuthConfig{
		Password:       "schooladmin",
		PasswordBcrypt: string(hash),
		JWTSecret:      "test-secret",
	})

	_, err = svc.Login(models.LoginRequest{Password: "schooladmin"})
	require.Error(t, err)

	resp, err := svc.Login(models.LoginRequest{Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(nil, zap.NewNop(), AuthConfig{
		Password:  "schooladmin",
		JWTSecret: "test-secret",
	})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsOtherSecret(t *testing.T) {
	issuer := NewAuthService(nil, zap.NewNop(), AuthConfig{Password: "x", JWTSecret: "secret-a"})
	verifier := NewAuthService(nil, zap.NewNop(), AuthConfig{Password: "x", JWTSecret: "secret-b"})

	resp, err := issuer.Login(models.LoginRequest{Password: "x"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.Token)
	require.Error(t, err)
}

package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecoschool/ecoschool-api/internal/models"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

// AuthConfig defines configuration for the admin session flow. The tool
// uses a single shared admin credential rather than per-user accounts;
// PasswordBcrypt takes precedence over the plaintext Password when set.
type AuthConfig struct {
	Password       string
	PasswordBcrypt string
	JWTSecret      string
	SessionTTL     time.Duration
	Issuer         string
}

// AuthService issues and validates admin session tokens.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "ecoschool-api"
	}
	return &AuthService{validator: validate, logger: logger, config: config}
}

// Login checks the shared admin password and returns a signed session token.
func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	if !s.passwordMatches(req.Password) {
		s.logger.Warn("admin login rejected")
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid admin password")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.SessionTTL)
	claims := &models.AdminClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   models.RoleAdmin,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	s.logger.Info("admin session issued", zap.Time("expires_at", expiresAt))
	return &models.LoginResponse{Token: signed, ExpiresAt: expiresAt.Unix()}, nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session claims")
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}

	return claims, nil
}

func (s *AuthService) passwordMatches(candidate string) bool {
	if s.config.PasswordBcrypt != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.config.PasswordBcrypt), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.config.Password), []byte(candidate)) == 1
}

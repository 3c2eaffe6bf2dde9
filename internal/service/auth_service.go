package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-help-api/internal/models"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	// AllowDevTokens enables IssueDevToken; it is off in production.
	AllowDevTokens bool
}

// AuthService issues and validates access tokens. It is the JWT backed IdentityProvider.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{validator: validate, logger: logger, config: config, now: time.Now}
}

func unauthorized(message string) error {
	return appErrors.Clone(appErrors.ErrUnauthorized, message)
}

// IssueDevToken signs a token for an arbitrary identity. Credential checks
// live outside this service, so the endpoint is only mounted outside production.
func (s *AuthService) IssueDevToken(ctx context.Context, req models.DevTokenRequest) (*models.TokenResponse, error) {
	if !s.config.AllowDevTokens {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "development tokens are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token request")
	}
	role, ok := models.ParseUserRole(req.Role)
	if !ok {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown role"), "role")
	}
	identity := models.Identity{ID: req.UserID, Role: role}

	token, issuedAt, err := s.sign(identity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("development token issued", zap.String("user_id", identity.ID), zap.String("role", string(identity.Role)))
	return &models.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Identity:    identity,
		IssuedAt:    issuedAt,
	}, nil
}

func (s *AuthService) sign(identity models.Identity) (string, time.Time, error) {
	now := s.now().UTC()
	claims := models.JWTClaims{
		UserID: identity.ID,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	return signed, now, err
}

// ValidateToken parses and validates a JWT access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.AccessTokenSecret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, unauthorized("token expired")
		}
		return nil, unauthorized("invalid token")
	}
	if !token.Valid {
		return nil, unauthorized("invalid token")
	}
	role, ok := models.ParseUserRole(string(claims.Role))
	if !ok || claims.UserID == "" {
		return nil, unauthorized("token carries no valid identity")
	}
	claims.Role = role
	return claims, nil
}

// Resolve implements IdentityProvider.
func (s *AuthService) Resolve(_ context.Context, credential string) (models.Identity, error) {
	claims, err := s.ValidateToken(credential)
	if err != nil {
		return models.Identity{}, err
	}
	return claims.Identity(), nil
}

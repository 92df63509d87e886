package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/steeven-js/madinia-cyber/internal/domain"
	"github.com/steeven-js/madinia-cyber/internal/repository"
	"github.com/steeven-js/madinia-cyber/pkg/config"
	"github.com/steeven-js/madinia-cyber/pkg/crypto"
	jwtpkg "github.com/steeven-js/madinia-cyber/pkg/jwt"
)

var (
	ErrSignupDisabled     = errors.New("operator signup is disabled")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenRequired      = errors.New("token required")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

// Service handles operator authentication.
type Service struct {
	operators repository.OperatorRepository
	logger    *slog.Logger
	cfg       config.APIConfig
}

// New constructs a Service.
func New(operators repository.OperatorRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{operators: operators, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Signup registers a new operator when ALLOW_SIGNUP is enabled.
func (s Service) Signup(ctx context.Context, email, name, password string) (*domain.Operator, TokenPair, error) {
	if !s.cfg.AllowSignup {
		return nil, TokenPair{}, ErrSignupDisabled
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, TokenPair{}, err
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	operator := &domain.Operator{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.operators.CreateOperator(ctx, operator); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(operator)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("operator registered", "operator_id", operator.ID)
	return operator, tokens, nil
}

// Login authenticates an operator and returns tokens. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s Service) Login(ctx context.Context, email, password string) (*domain.Operator, TokenPair, error) {
	operator, err := s.operators.GetOperatorByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if err := crypto.ComparePassword(operator.PasswordHash, password); err != nil {
		s.logger.Warn("operator login rejected", "operator_id", operator.ID)
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	tokens, err := s.issueTokens(operator)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("operator logged in", "operator_id", operator.ID)
	return operator, tokens, nil
}

// Authorize validates a session token and returns the associated operator and claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.Operator, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, ErrTokenRequired
	}
	claims, err := jwtpkg.ParseAs(trimmed, s.cfg.JWTSecret, jwtpkg.TypeAccess)
	if err != nil {
		return nil, nil, err
	}
	operator, err := s.operators.GetOperatorByID(ctx, claims.OperatorID)
	if err != nil {
		return nil, nil, err
	}
	return operator, claims, nil
}

// Refresh exchanges a refresh token for a new token pair. Access tokens are
// rejected here, as refresh tokens are rejected by Authorize.
func (s Service) Refresh(ctx context.Context, token string) (*domain.Operator, TokenPair, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, TokenPair{}, ErrTokenRequired
	}
	claims, err := jwtpkg.ParseAs(trimmed, s.cfg.JWTSecret, jwtpkg.TypeRefresh)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidRefresh, err)
	}
	operator, err := s.operators.GetOperatorByID(ctx, claims.OperatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidRefresh
		}
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(operator)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("operator session refreshed", "operator_id", operator.ID)
	return operator, tokens, nil
}

func (s Service) issueTokens(operator *domain.Operator) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(operator.ID, operator.Email, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := jwtpkg.GenerateRefreshToken(operator.ID, operator.Email, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

func normalizeEmail(value string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address == "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

// AuthConfig tunes AuthService
type AuthConfig struct {
	SessionTTL       time.Duration
	BcryptCost       int
	MaxLoginAttempts int
	LockoutWindow    time.Duration
}

// AuthService registers users and manages their sessions
type AuthService struct {
	users repositories.UserRepository
	cache providers.CacheProvider
	cfg   AuthConfig
	now   func() time.Time
}

const defaultSessionTTL = 24 * time.Hour

// NewAuthService creates a new auth service. Sessions live in cache.
func NewAuthService(users repositories.UserRepository, cache providers.CacheProvider, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &AuthService{
		users: users,
		cache: cache,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, email, password string) (*entities.User, *entities.Session, error) {
	email = entities.NormalizeEmail(email)
	if err := entities.ValidateEmail(email); err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error())
	}
	if len(password) < minPasswordLength {
		return nil, nil, apperrors.NewValidationError("password must be at least 6 characters")
	}
	if len(password) > maxPasswordLength {
		return nil, nil, apperrors.NewValidationError("password is too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := s.now().UTC()
	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login checks credentials and opens a session. Repeated failures for the
// same email are refused until the lockout window passes.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entities.User, *entities.Session, error) {
	email = entities.NormalizeEmail(email)
	attemptsKey := providers.LoginAttemptsCacheKey(email)

	if s.cfg.MaxLoginAttempts > 0 {
		if data, err := s.cache.Get(ctx, attemptsKey); err == nil && attemptsExceeded(data, s.cfg.MaxLoginAttempts) {
			return nil, nil, apperrors.NewRateLimitedError("too many login attempts, try again later")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			s.recordFailure(ctx, attemptsKey)
			return nil, nil, apperrors.NewUnauthorizedError("invalid email or password")
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, attemptsKey)
		return nil, nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	_ = s.cache.Delete(ctx, attemptsKey)

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// ValidateToken resolves a bearer token to its session
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*entities.Session, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("missing token")
	}

	data, err := s.cache.Get(ctx, providers.SessionCacheKey(token))
	if err != nil {
		if errors.Is(err, providers.ErrCacheMiss) {
			return nil, apperrors.NewUnauthorizedError("invalid or expired token")
		}
		return nil, apperrors.NewInternalError("failed to load session", err)
	}

	var session entities.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid or expired token")
	}
	if session.Expired(s.now()) {
		_ = s.cache.Delete(ctx, providers.SessionCacheKey(token))
		return nil, apperrors.NewUnauthorizedError("invalid or expired token")
	}
	return &session, nil
}

// Logout ends a session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.cache.Delete(ctx, providers.SessionCacheKey(token))
}

func (s *AuthService) newSession(ctx context.Context, userID string) (*entities.Session, error) {
	session := &entities.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().UTC().Add(s.cfg.SessionTTL),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode session", err)
	}
	if err := s.cache.Set(ctx, providers.SessionCacheKey(session.Token), data, int(s.cfg.SessionTTL.Seconds())); err != nil {
		return nil, apperrors.NewInternalError("failed to store session", err)
	}
	return session, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.cfg.MaxLoginAttempts <= 0 {
		return
	}
	if _, err := s.cache.Incr(ctx, key, int(s.cfg.LockoutWindow.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Failed to record login attempt")
	}
}

func attemptsExceeded(data []byte, max int) bool {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return false
	}
	return n >= int64(max)
}

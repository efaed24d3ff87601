package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/issue-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"github.com/yukikurage/issue-tracker-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials  = apierrors.New(apierrors.KindUnauthorized, "invalid email or password")
	ErrInvalidRefreshToken = apierrors.New(apierrors.KindUnauthorized, "refresh token is invalid or expired")
	ErrUserNotFound        = apierrors.New(apierrors.KindNotFound, "user not found")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *TokenService
	refreshTTL time.Duration
	metrics    *metrics.Metrics
	now        Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, refreshTTL time.Duration, m *metrics.Metrics) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		metrics:    m,
		now:        time.Now,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Session is what a successful login or refresh hands back.
type Session struct {
	User         *models.User
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string
}

// Login verifies credentials, stores a new refresh token hash (replacing
// any previous one) and issues an access token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveLogin("rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		s.metrics.ObserveLogin("rejected")
		return nil, ErrInvalidCredentials
	}

	raw, err := s.newRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, utils.HashToken(raw)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	access, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLogin("ok")
	return &Session{User: user, AccessToken: access, ExpiresAt: exp, RefreshToken: raw}, nil
}

// Refresh issues a new access token for the holder of a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" || s.refreshExpired(raw) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByRefreshToken(ctx, utils.HashToken(raw))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	access, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, AccessToken: access, ExpiresAt: exp, RefreshToken: raw}, nil
}

// Logout forgets the user's refresh token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	user, err := s.userRepo.FindByRefreshToken(ctx, utils.HashToken(raw))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	return s.userRepo.SetRefreshToken(ctx, user.ID, "")
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// Refresh tokens are "<unix expiry>.<random hex>"; the expiry is covered by
// the stored hash, so it cannot be extended by the client.
func (s *AuthService) newRefreshToken() (string, error) {
	random, err := utils.RandomHex(constants.RefreshTokenBytes)
	if err != nil {
		return "", err
	}
	exp := s.now().Add(s.refreshTTL).Unix()
	return strconv.FormatInt(exp, 10) + "." + random, nil
}

func (s *AuthService) refreshExpired(raw string) bool {
	expPart, _, ok := strings.Cut(raw, ".")
	if !ok {
		return true
	}
	exp, err := strconv.ParseInt(expPart, 10, 64)
	if err != nil {
		return true
	}
	return s.now().Unix() >= exp
}

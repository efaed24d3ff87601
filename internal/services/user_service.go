package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/issue-tracker-api/internal/authz"
	"github.com/yukikurage/issue-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
	"github.com/yukikurage/issue-tracker-api/internal/metrics"
	"github.com/yukikurage/issue-tracker-api/internal/models"
	"github.com/yukikurage/issue-tracker-api/internal/query"
	"github.com/yukikurage/issue-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken       = apierrors.New(apierrors.KindConflict, "email is already registered")
	ErrEmailRequired    = apierrors.New(apierrors.KindBadRequest, "email is required")
	ErrNameRequired     = apierrors.New(apierrors.KindBadRequest, "first_name and last_name are required")
	ErrPasswordTooShort = apierrors.New(apierrors.KindBadRequest, fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength))
	ErrUnknownRole      = apierrors.New(apierrors.KindBadRequest, "one or more role IDs do not exist")
	ErrUserInUse        = apierrors.New(apierrors.KindConflict, "user still owns issues or comments")
)

// UserService handles user administration
type UserService struct {
	userRepo repository.UserRepository
	metrics  *metrics.Metrics
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, m *metrics.Metrics) *UserService {
	return &UserService{userRepo: userRepo, metrics: m}
}

// CreateUserInput holds the fields of a new user. Password may be empty.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	RoleIDs   []models.RoleID
}

// UpdateUserInput is a partial user update. A nil RoleIDs keeps the current
// role set; a non-nil one replaces it.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	RoleIDs   []models.RoleID
}

// List returns users matching params.
func (s *UserService) List(ctx context.Context, p authz.Principal, params map[string]string) ([]models.User, *query.Query, int64, error) {
	if err := authorize(s.metrics, p, authz.UserList, nil); err != nil {
		return nil, nil, 0, err
	}
	q, err := query.Build(params, query.Users)
	if err != nil {
		return nil, nil, 0, err
	}
	users, total, err := s.userRepo.List(ctx, q)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, q, total, nil
}

// Get returns one user with roles.
func (s *UserService) Get(ctx context.Context, p authz.Principal, id uint64) (*models.User, error) {
	if err := authorize(s.metrics, p, authz.UserView, nil); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// Create registers a user with the given roles.
func (s *UserService) Create(ctx context.Context, p authz.Principal, input CreateUserInput) (*models.User, error) {
	if err := authorize(s.metrics, p, authz.UserCreate, nil); err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
	}
	if user.FirstName == "" || user.LastName == "" {
		return nil, ErrNameRequired
	}
	if user.Email == "" {
		return nil, ErrEmailRequired
	}
	if err := s.ensureEmailFree(ctx, user.Email, 0); err != nil {
		return nil, err
	}
	if err := s.ensureRolesExist(ctx, input.RoleIDs); err != nil {
		return nil, err
	}
	if input.Password != "" {
		hash, err := hashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Create(ctx, user, input.RoleIDs); err != nil {
		return nil, s.writeError(err, "create user")
	}
	return user, nil
}

// Update edits a user's profile, password and roles.
func (s *UserService) Update(ctx context.Context, p authz.Principal, id uint64, input UpdateUserInput) (*models.User, error) {
	if err := authorize(s.metrics, p, authz.UserUpdate, nil); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err, ErrUserNotFound, "find user")
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if user.FirstName == "" || user.LastName == "" {
		return nil, ErrNameRequired
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			return nil, ErrEmailRequired
		}
		if err := s.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Password != nil {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.ensureRolesExist(ctx, input.RoleIDs); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user, input.RoleIDs); err != nil {
		return nil, s.writeError(err, "update user")
	}
	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, p authz.Principal, id uint64) error {
	if err := authorize(s.metrics, p, authz.UserDelete, nil); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return s.writeError(err, "delete user")
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, self uint64) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *UserService) ensureRolesExist(ctx context.Context, roleIDs []models.RoleID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	unique := make(map[models.RoleID]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		unique[id] = struct{}{}
	}
	n, err := s.userRepo.CountRoles(ctx, roleIDs)
	if err != nil {
		return fmt.Errorf("failed to count roles: %w", err)
	}
	if n != int64(len(unique)) {
		return ErrUnknownRole
	}
	return nil
}

// writeError maps a losing race on the unique email to Conflict. Users
// referenced by issues or comments cannot be deleted.
func (s *UserService) writeError(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrEmailTaken
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrUserInUse
	}
	return fail(err, ErrUserNotFound, op)
}

func hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

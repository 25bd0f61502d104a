package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/store"
)

// InvalidUserDataError reports rejected registration data. It carries the
// non-sensitive fields only; the password never appears in the error.
type InvalidUserDataError struct {
	Username string
	Email    string
}

func (e *InvalidUserDataError) Error() string {
	return fmt.Sprintf("invalid user data: %s, %s", e.Username, e.Email)
}

// RegisterInput is the payload for user creation.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=30"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,max=120"`
}

// Credentials is the payload for login checks.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Service manages user accounts: registration with validation and bcrypt
// hashing, credential checks, lookups and deletion.
type Service struct {
	users    *store.UserStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a Service over the user store.
func NewService(users *store.UserStore, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		validate: validator.New(),
		logger:   logger.Named("user_service"),
	}
}

// Create validates the input, hashes the password and stores the user.
// Validation failure returns InvalidUserDataError; a duplicate username or
// email propagates the store's ErrDuplicate.
func (s *Service) Create(ctx context.Context, input RegisterInput) (models.User, error) {
	if err := s.validate.Struct(input); err != nil {
		s.logger.Warn("rejected user data", zap.String("username", input.Username), zap.String("email", input.Email))
		return models.User{}, &InvalidUserDataError{Username: input.Username, Email: input.Email}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		s.logger.Warn("failed to create user", zap.String("username", input.Username), zap.Error(err))
		return models.User{}, err
	}
	s.logger.Info("user created", zap.Int64("user_id", user.UserID), zap.String("username", user.Username))
	return user, nil
}

// Login checks the credentials against the stored hash. Unknown users and
// wrong passwords both report false.
func (s *Service) Login(ctx context.Context, creds Credentials) (models.User, bool) {
	if creds.Username == "" || creds.Password == "" {
		return models.User{}, false
	}
	user, err := s.users.GetByName(ctx, creds.Username)
	if err != nil {
		s.logger.Info("login failed", zap.String("username", creds.Username))
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		s.logger.Info("login failed", zap.String("username", creds.Username))
		return models.User{}, false
	}
	return user, true
}

// Get fetches a user by ID; false when absent.
func (s *Service) Get(ctx context.Context, userID int64) (models.User, bool) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("get user", zap.Int64("user_id", userID), zap.Error(err))
		}
		return models.User{}, false
	}
	return user, true
}

// List returns all users; nil on store failure (logged, not raised).
func (s *Service) List(ctx context.Context) []models.User {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Error("list users", zap.Error(err))
		return nil
	}
	return users
}

// Delete removes a user and their events; false when absent or on failure.
func (s *Service) Delete(ctx context.Context, userID int64) bool {
	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.Warn("delete user", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	s.logger.Info("user deleted", zap.Int64("user_id", userID))
	return true
}

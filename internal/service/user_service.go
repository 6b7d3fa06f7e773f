package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"typerace/internal/model"
	"typerace/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
	// bcrypt caps input at 72 bytes
	maxPasswordLen = 72
)

// UserService handles account signup and login
type UserService struct {
	repo       repository.UserRepo
	authSvc    *AuthService
	bcryptCost int
	logger     *slog.Logger
}

// NewUserService creates a user service. bcryptCost of zero uses bcrypt.DefaultCost.
func NewUserService(repo repository.UserRepo, authSvc *AuthService, bcryptCost int, logger *slog.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:       repo,
		authSvc:    authSvc,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Signup creates an account and returns a token for it
func (s *UserService) Signup(ctx context.Context, req model.CredentialsRequest) (*model.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateCredentials(username, req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	return s.tokenFor(user)
}

// Login verifies credentials and returns a fresh token
func (s *UserService) Login(ctx context.Context, req model.CredentialsRequest) (*model.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, model.Invalid("username and password are required")
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	return s.tokenFor(user)
}

// GetUser returns the account behind a token's user id
func (s *UserService) GetUser(ctx context.Context, id string) (*model.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUnauthenticated
	}
	info := user.Info()
	return &info, nil
}

func (s *UserService) tokenFor(user *model.User) (*model.TokenResponse, error) {
	token, err := s.authSvc.IssueToken(user.Info())
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &model.TokenResponse{Token: token, User: user.Info()}, nil
}

func validateCredentials(username, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return model.Invalid(fmt.Sprintf("username must be %d-%d characters", minUsernameLen, maxUsernameLen))
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return model.Invalid(fmt.Sprintf("password must be %d-%d bytes", minPasswordLen, maxPasswordLen))
	}
	return nil
}

package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"github.com/pharmadesk/pharmacy-backend/internal/auth/jwt"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
)

// CreateUserRequest creates a user account
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	RoleID   *int64 `json:"role_id"`
}

// LoginRequest authenticates a user
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the user it belongs to
type LoginResponse struct {
	AccessToken string                 `json:"access_token"`
	TokenType   string                 `json:"token_type"`
	ExpiresAt   string                 `json:"expires_at"`
	User        *repository.UserDetail `json:"user"`
}

// UserService manages users and authentication
type UserService struct {
	users      *repository.UserRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users *repository.UserRepository, jwtManager *jwt.Manager, log *logger.Logger) *UserService {
	return &UserService{
		users:      users,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// Create creates a user with a bcrypt-hashed password
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*repository.UserDetail, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		RoleID:       req.RoleID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, user.ID)
}

// List lists users with role names
func (s *UserService) List(ctx context.Context) ([]*repository.UserDetail, error) {
	return s.users.List(ctx)
}

// ListRoles lists all roles
func (s *UserService) ListRoles(ctx context.Context) ([]*repository.Role, error) {
	return s.users.ListRoles(ctx)
}

// Login verifies credentials and issues an access token
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	role := ""
	if user.RoleName != nil {
		role = *user.RoleName
	}

	token, err := s.jwtManager.Generate(&jwt.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Role:     role,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to issue token")
		return nil, errors.Internal("failed to issue token")
	}

	return &LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User:        user,
	}, nil
}

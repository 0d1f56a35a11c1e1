package authservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Leopold1975/conduit/internal/conduit/domain/models"
	repo "github.com/Leopold1975/conduit/internal/conduit/repository/conduitrepo"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo Repository
	tokens   TokenManager
}

var (
	ErrInvalidCredentials = errors.New("email or password is invalid")
	ErrUnauthenticated    = errors.New("token is invalid or expired")
)

type Repository interface {
	CreateUser(context.Context, models.User) (models.User, error)
	GetUserByID(context.Context, int64) (models.User, error)
	GetUserByEmail(context.Context, string) (models.User, error)
	UpdateUser(context.Context, models.User) (models.User, error)
}

type TokenManager interface {
	GetToken(userID int64) (string, error)
	ValidateToken(token string) (int64, error)
}

func New(userRepo Repository, tokens TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register creates the user and returns it with a fresh token.
func (as *AuthService) Register(ctx context.Context, req RegisterRequest) (models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("generate from password error: %w", err)
	}

	u, err := as.userRepo.CreateUser(ctx, models.User{ //nolint:exhaustruct
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	})
	if err != nil {
		return models.User{}, "", fmt.Errorf("create user error: %w", err)
	}

	token, err := as.tokens.GetToken(u.ID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("can't get token error: %w", err)
	}

	return u, token, nil
}

func (as *AuthService) Login(ctx context.Context, req LoginRequest) (models.User, string, error) {
	u, err := as.userRepo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, "", ErrInvalidCredentials
	} else if err != nil {
		return models.User{}, "", fmt.Errorf("get user error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := as.tokens.GetToken(u.ID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("can't get token error: %w", err)
	}

	return u, token, nil
}

// Authenticate resolves the user a token was issued to.
func (as *AuthService) Authenticate(ctx context.Context, token string) (models.User, error) {
	id, err := as.tokens.ValidateToken(token)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	u, err := as.userRepo.GetUserByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: user %d is gone", ErrUnauthenticated, id)
	} else if err != nil {
		return models.User{}, fmt.Errorf("get user error: %w", err)
	}

	return u, nil
}

// UpdateUser applies the present fields of req on top of u. The save fails
// with repo.ErrConflict if req.LockVersion is stale.
func (as *AuthService) UpdateUser(ctx context.Context, u models.User, req UpdateUserRequest) (models.User, error) {
	if req.Email != nil {
		u.Email = *req.Email
	}

	if req.Bio != nil {
		u.Bio = req.Bio
	}

	if req.Image != nil {
		u.Image = req.Image
	}

	if req.LockVersion != nil {
		u.LockVersion = *req.LockVersion
	}

	updated, err := as.userRepo.UpdateUser(ctx, u)
	if err != nil {
		return models.User{}, fmt.Errorf("update user error: %w", err)
	}

	return updated, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/auth"
	"github.com/spec-kit/employee-service/internal/config"
	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// notAssigned is reported as the company of users without one.
const notAssigned = "Not assigned"

// AuthService coordinates login and the caller profile.
type AuthService struct {
	deps       Dependencies
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// Profile is the current caller as shown by the profile endpoint.
type Profile struct {
	ID       string
	Username string
	Email    string
	Role     domain.Role
	Company  string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps Dependencies) *AuthService {
	return &AuthService{
		deps:       deps,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.App.Name),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates by username, or by email when the identifier contains
// an "@", and issues an access token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, string, time.Time, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("Both username/email and password are required.", nil)
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.deps.Users.GetByEmail(ctx, identifier)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid email or password.")
		}
	} else {
		user, err = s.deps.Users.GetByUsername(ctx, identifier)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid username or password.")
		}
	}
	if err != nil {
		return nil, "", time.Time{}, mapRepoError(err, "user")
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			observability.LoggerFromContext(ctx, s.deps.logger()).Warn("password hash check failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials.")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Me resolves the profile of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, p *domain.Principal) (*Profile, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	user, err := s.deps.Users.GetByID(ctx, visibility.All, p.UserID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	profile := &Profile{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Company:  notAssigned,
	}
	if user.CompanyID != nil {
		company, err := s.deps.Companies.GetByID(ctx, visibility.All, *user.CompanyID)
		switch {
		case err == nil:
			profile.Company = company.Name
		case !errors.Is(err, repository.ErrNotFound):
			return nil, mapRepoError(err, "company")
		}
	}
	return profile, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
// An empty username or password disables bootstrapping.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (*domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, false, nil
	}
	existing, err := s.deps.Users.GetByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, false, err
	}
	admin := &domain.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.deps.Users.Create(ctx, admin); err != nil {
		// a concurrent bootstrap created it first
		if errors.Is(err, repository.ErrConflict) {
			existing, getErr := s.deps.Users.GetByUsername(ctx, username)
			return existing, false, getErr
		}
		return nil, false, err
	}
	return admin, true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/employee-service/internal/auth"
	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// UserService manages accounts and their role assignments.
type UserService struct {
	deps       Dependencies
	bcryptCost int
}

// UserCreateInput describes a new account. Role defaults to employee.
type UserCreateInput struct {
	Username  string
	Email     string
	Password  string
	Role      string
	Phone     *string
	CompanyID *string
}

// UserUpdateInput holds optional changes. An empty Phone or CompanyID
// clears the field.
type UserUpdateInput struct {
	Username  *string
	Email     *string
	Password  *string
	Role      *string
	Phone     *string
	CompanyID *string
}

// NewUserService constructs the service.
func NewUserService(deps Dependencies, bcryptCost int) *UserService {
	return &UserService{deps: deps, bcryptCost: bcryptCost}
}

func (s *UserService) List(ctx context.Context, p *domain.Principal) ([]domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	users, err := s.deps.Users.List(ctx, visibility.For(p, visibility.EntityUser))
	return users, mapRepoError(err, "user")
}

func (s *UserService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := knownID("user", id); err != nil {
		return nil, err
	}
	user, err := s.deps.Users.GetByID(ctx, visibility.For(p, visibility.EntityUser), id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, p *domain.Principal, input UserCreateInput) (*domain.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	role := domain.RoleEmployee
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("role must be one of admin, manager, employee", map[string]any{"field": "role"})
		}
		role = parsed
	}
	if role != domain.RoleEmployee && !p.IsAdmin() {
		return nil, apperrors.NewForbidden("Only admins can assign roles.")
	}

	user := &domain.User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(input.Email),
		Role:     role,
		Phone:    optionalString(input.Phone),
	}
	if err := required("username", user.Username); err != nil {
		return nil, err
	}
	if err := required("password", input.Password); err != nil {
		return nil, err
	}
	if err := validateEmail(user.Email); err != nil {
		return nil, err
	}

	user.CompanyID = optionalString(input.CompanyID)
	if user.CompanyID == nil && p.Role == domain.RoleManager {
		user.CompanyID = p.CompanyID
	}
	if !visibility.For(p, visibility.EntityUser).Allows(user) {
		return nil, apperrors.NewForbidden("You do not have permission to create users in this company.")
	}
	if err := s.ensureCompany(ctx, user.CompanyID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}
	s.publish(ctx, p, user, events.ActionCreated)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, p *domain.Principal, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin && !p.IsAdmin() {
		return nil, apperrors.NewForbidden("Only admins can modify admin accounts.")
	}

	if input.Role != nil {
		role, ok := domain.ParseRole(*input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("role must be one of admin, manager, employee", map[string]any{"field": "role"})
		}
		if role != user.Role && !p.IsAdmin() {
			return nil, apperrors.NewForbidden("Only admins can change roles.")
		}
		user.Role = role
	}
	if input.Username != nil {
		user.Username = strings.TrimSpace(*input.Username)
		if err := required("username", user.Username); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
		if err := validateEmail(user.Email); err != nil {
			return nil, err
		}
	}
	if input.Phone != nil {
		user.Phone = optionalString(input.Phone)
	}
	if input.CompanyID != nil {
		companyID := optionalString(input.CompanyID)
		if !sameCompany(companyID, user.CompanyID) {
			if !p.IsAdmin() {
				return nil, apperrors.NewForbidden("Only admins can move users between companies.")
			}
			if err := s.ensureCompany(ctx, companyID); err != nil {
				return nil, err
			}
			if err := s.ensurePlacementFollows(ctx, user.ID, companyID); err != nil {
				return nil, err
			}
			user.CompanyID = companyID
		}
	}
	if input.Password != nil {
		if err := required("password", *input.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.deps.Users.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "user")
	}
	s.publish(ctx, p, user, events.ActionUpdated)
	return user, nil
}

// Delete removes the account and, through the cascade, its employee profile.
func (s *UserService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	user, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if user.ID == p.UserID {
		return apperrors.NewForbidden("You cannot delete your own account.")
	}
	if user.Role == domain.RoleAdmin && !p.IsAdmin() {
		return apperrors.NewForbidden("Only admins can delete admin accounts.")
	}
	if err := s.deps.Users.Delete(ctx, user.ID); err != nil {
		return mapRepoError(err, "user")
	}
	s.publish(ctx, p, user, events.ActionDeleted)
	return nil
}

func (s *UserService) ensureCompany(ctx context.Context, companyID *string) error {
	if companyID == nil {
		return nil
	}
	if err := validateID("company_id", *companyID); err != nil {
		return err
	}
	_, err := s.deps.Companies.GetByID(ctx, visibility.All, *companyID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewValidationError("Company not found.", map[string]any{"field": "company_id"})
	}
	return mapRepoError(err, "company")
}

// ensurePlacementFollows rejects moving a user away from the company their
// employee profile belongs to.
func (s *UserService) ensurePlacementFollows(ctx context.Context, userID string, companyID *string) error {
	profiles, err := s.deps.Employees.List(ctx, visibility.Scope{Kind: visibility.KindSelf, UserID: userID}, repository.EmployeeFilter{})
	if err != nil {
		return mapRepoError(err, "employee")
	}
	for _, profile := range profiles {
		if companyID == nil || *companyID != profile.CompanyID {
			return apperrors.NewValidationError("User has an employee profile in another company.", map[string]any{"field": "company_id"})
		}
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, p *domain.Principal, user *domain.User, action string) {
	event := events.NewEvent(events.EventUserChanged, user.ID, events.ActorFrom(p),
		events.EntityChangedPayload{Action: action, Name: user.Username})
	publishEvent(ctx, s.deps, event.WithCompany(user.CompanyID))
}

func optionalString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameCompany(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return apperrors.NewValidationError("Enter a valid email address.", map[string]any{"field": "email"})
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// DepartmentService manages organizational units inside companies.
type DepartmentService struct {
	deps Dependencies
}

// DepartmentCreateInput describes a new department.
type DepartmentCreateInput struct {
	CompanyID string
	Name      string
}

// DepartmentListFilter narrows the scoped listing.
type DepartmentListFilter struct {
	CompanyID string
}

// NewDepartmentService constructs the service.
func NewDepartmentService(deps Dependencies) *DepartmentService {
	return &DepartmentService{deps: deps}
}

func (s *DepartmentService) List(ctx context.Context, p *domain.Principal, filter DepartmentListFilter) ([]domain.Department, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	var repoFilter repository.DepartmentFilter
	if companyID := strings.TrimSpace(filter.CompanyID); companyID != "" {
		if err := validateID("company_id", companyID); err != nil {
			return nil, err
		}
		repoFilter.CompanyID = &companyID
	}
	departments, err := s.deps.Departments.List(ctx, visibility.For(p, visibility.EntityDepartment), repoFilter)
	return departments, mapRepoError(err, "department")
}

func (s *DepartmentService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Department, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := knownID("department", id); err != nil {
		return nil, err
	}
	dept, err := s.deps.Departments.GetByID(ctx, visibility.For(p, visibility.EntityDepartment), id)
	if err != nil {
		return nil, mapRepoError(err, "department")
	}
	return dept, nil
}

// Create adds a department. The target company must be inside the caller's
// department scope and must exist.
func (s *DepartmentService) Create(ctx context.Context, p *domain.Principal, input DepartmentCreateInput) (*domain.Department, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	dept := &domain.Department{
		CompanyID: strings.TrimSpace(input.CompanyID),
		Name:      strings.TrimSpace(input.Name),
	}
	if err := required("company_id", dept.CompanyID); err != nil {
		return nil, err
	}
	if err := validateID("company_id", dept.CompanyID); err != nil {
		return nil, err
	}
	if err := required("name", dept.Name); err != nil {
		return nil, err
	}
	if !visibility.For(p, visibility.EntityDepartment).Allows(dept) {
		return nil, apperrors.NewForbidden("You do not have permission to create departments in this company.")
	}
	_, err := s.deps.Companies.GetByID(ctx, visibility.All, dept.CompanyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewValidationError("Company not found.", map[string]any{"field": "company_id"})
	}
	if err != nil {
		return nil, mapRepoError(err, "company")
	}
	if err := s.deps.Departments.Create(ctx, dept); err != nil {
		return nil, mapRepoError(err, "department")
	}
	s.publish(ctx, p, dept, events.ActionCreated)
	return dept, nil
}

// Update renames a department. Departments never move between companies.
func (s *DepartmentService) Update(ctx context.Context, p *domain.Principal, id, name string) (*domain.Department, error) {
	dept, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	dept.Name = name
	if err := s.deps.Departments.Update(ctx, dept); err != nil {
		return nil, mapRepoError(err, "department")
	}
	s.publish(ctx, p, dept, events.ActionUpdated)
	return dept, nil
}

func (s *DepartmentService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	dept, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.deps.Departments.Delete(ctx, dept.ID); err != nil {
		return mapRepoError(err, "department")
	}
	s.publish(ctx, p, dept, events.ActionDeleted)
	return nil
}

func (s *DepartmentService) publish(ctx context.Context, p *domain.Principal, dept *domain.Department, action string) {
	event := events.NewEvent(events.EventDepartmentChanged, dept.ID, events.ActorFrom(p),
		events.EntityChangedPayload{Action: action, Name: dept.Name})
	publishEvent(ctx, s.deps, event.WithCompany(&dept.CompanyID))
}

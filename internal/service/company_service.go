package service

import (
	"context"
	"strings"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/visibility"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// CompanyService manages tenants.
type CompanyService struct {
	deps Dependencies
}

// CompanyInput carries the writable company fields.
type CompanyInput struct {
	Name string
}

// NewCompanyService constructs the service.
func NewCompanyService(deps Dependencies) *CompanyService {
	return &CompanyService{deps: deps}
}

func (s *CompanyService) List(ctx context.Context, p *domain.Principal) ([]domain.Company, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	companies, err := s.deps.Companies.List(ctx, visibility.For(p, visibility.EntityCompany))
	return companies, mapRepoError(err, "company")
}

func (s *CompanyService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Company, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := knownID("company", id); err != nil {
		return nil, err
	}
	company, err := s.deps.Companies.GetByID(ctx, visibility.For(p, visibility.EntityCompany), id)
	if err != nil {
		return nil, mapRepoError(err, "company")
	}
	return company, nil
}

// Create registers a tenant. Only callers whose company scope would admit a
// brand new company (admins) may do so.
func (s *CompanyService) Create(ctx context.Context, p *domain.Principal, input CompanyInput) (*domain.Company, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	company := &domain.Company{Name: strings.TrimSpace(input.Name)}
	if !visibility.For(p, visibility.EntityCompany).Allows(company) {
		return nil, apperrors.NewForbidden("You do not have permission to create companies.")
	}
	if err := required("name", company.Name); err != nil {
		return nil, err
	}
	if err := s.deps.Companies.Create(ctx, company); err != nil {
		return nil, mapRepoError(err, "company")
	}
	s.publish(ctx, p, company, events.ActionCreated)
	return company, nil
}

func (s *CompanyService) Update(ctx context.Context, p *domain.Principal, id string, input CompanyInput) (*domain.Company, error) {
	company, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if err := required("name", name); err != nil {
		return nil, err
	}
	company.Name = name
	if err := s.deps.Companies.Update(ctx, company); err != nil {
		return nil, mapRepoError(err, "company")
	}
	s.publish(ctx, p, company, events.ActionUpdated)
	return company, nil
}

// Delete removes the company together with its departments and employees.
func (s *CompanyService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	company, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.deps.Companies.Delete(ctx, company.ID); err != nil {
		return mapRepoError(err, "company")
	}
	s.publish(ctx, p, company, events.ActionDeleted)
	return nil
}

func (s *CompanyService) publish(ctx context.Context, p *domain.Principal, company *domain.Company, action string) {
	event := events.NewEvent(events.EventCompanyChanged, company.ID, events.ActorFrom(p),
		events.EntityChangedPayload{Action: action, Name: company.Name})
	publishEvent(ctx, s.deps, event.WithCompany(&company.ID))
}

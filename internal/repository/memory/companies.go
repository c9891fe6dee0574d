package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
)

type companyRepository struct{ s *Store }

func (r *companyRepository) Create(_ context.Context, company *domain.Company) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.companyNameTaken(company.Name, "") {
		return conflict("companies_name_unique")
	}
	id, now := s.stamp()
	company.ID, company.CreatedAt, company.UpdatedAt = id, now, now
	s.companies[id] = *company
	return nil
}

func (r *companyRepository) Update(_ context.Context, company *domain.Company) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.companies[company.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.companyNameTaken(company.Name, company.ID) {
		return conflict("companies_name_unique")
	}
	current.Name = company.Name
	current.UpdatedAt = s.now()
	s.companies[company.ID] = current
	*company = current

	for id, d := range s.departments {
		if d.CompanyID == company.ID {
			d.CompanyName = company.Name
			s.departments[id] = d
		}
	}
	return nil
}

func (r *companyRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.companies, id)
	delete(s.order, id)

	s.deleteEmployeesWhere(func(e domain.Employee) bool { return e.CompanyID == id })
	for deptID, d := range s.departments {
		if d.CompanyID == id {
			delete(s.departments, deptID)
			delete(s.order, deptID)
		}
	}
	for userID, u := range s.users {
		if u.CompanyID != nil && *u.CompanyID == id {
			u.CompanyID = nil
			s.users[userID] = u
		}
	}
	return nil
}

func (r *companyRepository) GetByID(_ context.Context, scope visibility.Scope, id string) (*domain.Company, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[id]
	if !ok || !scope.Allows(company) {
		return nil, repository.ErrNotFound
	}
	return &company, nil
}

func (r *companyRepository) List(_ context.Context, scope visibility.Scope) ([]domain.Company, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Company, 0, len(s.companies))
	for _, c := range s.companies {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return visibility.Filter(scope, all), nil
}

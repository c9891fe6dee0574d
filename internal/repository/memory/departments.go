package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
)

type departmentRepository struct{ s *Store }

func (r *departmentRepository) Create(_ context.Context, dept *domain.Department) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	company, ok := s.companies[dept.CompanyID]
	if !ok {
		return missingReference("departments_company_id_fkey")
	}
	id, now := s.stamp()
	dept.ID, dept.CompanyName, dept.CreatedAt, dept.UpdatedAt = id, company.Name, now, now
	s.departments[id] = *dept
	return nil
}

func (r *departmentRepository) Update(_ context.Context, dept *domain.Department) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name = dept.Name
	current.UpdatedAt = s.now()
	s.departments[dept.ID] = current
	*dept = current
	return nil
}

func (r *departmentRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.departments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.departments, id)
	delete(s.order, id)
	s.deleteEmployeesWhere(func(e domain.Employee) bool { return e.DepartmentID == id })
	return nil
}

func (r *departmentRepository) GetByID(_ context.Context, scope visibility.Scope, id string) (*domain.Department, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	dept, ok := s.departments[id]
	if !ok || !scope.Allows(dept) {
		return nil, repository.ErrNotFound
	}
	return &dept, nil
}

func (r *departmentRepository) List(_ context.Context, scope visibility.Scope, filter repository.DepartmentFilter) ([]domain.Department, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Department, 0, len(s.departments))
	for _, d := range s.departments {
		if filter.CompanyID != nil && d.CompanyID != *filter.CompanyID {
			continue
		}
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CompanyName != all[j].CompanyName {
			return all[i].CompanyName < all[j].CompanyName
		}
		return all[i].Name < all[j].Name
	})
	return visibility.Filter(scope, all), nil
}

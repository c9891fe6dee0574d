package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
)

type employeeRepository struct{ s *Store }

// checkPlacement enforces the foreign keys the schema declares on employees.
func (s *Store) checkPlacement(e *domain.Employee) error {
	if _, ok := s.users[e.UserID]; !ok {
		return missingReference("employees_user_id_fkey")
	}
	if _, ok := s.companies[e.CompanyID]; !ok {
		return missingReference("employees_company_id_fkey")
	}
	dept, ok := s.departments[e.DepartmentID]
	if !ok || dept.CompanyID != e.CompanyID {
		return missingReference("employees_department_company_fk")
	}
	return nil
}

func (r *employeeRepository) Create(_ context.Context, employee *domain.Employee) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPlacement(employee); err != nil {
		return err
	}
	for _, existing := range s.employees {
		if existing.UserID == employee.UserID {
			return conflict("employees_user_unique")
		}
	}
	if !employee.Status.Valid() {
		return &repository.ConstraintError{Kind: repository.ErrInvalidValue, Constraint: "employees_status_check"}
	}
	id, now := s.stamp()
	employee.ID, employee.CreatedAt, employee.UpdatedAt = id, now, now
	stored := *employee
	stored.User = nil
	stored.HiredOn = cloneTime(employee.HiredOn)
	s.employees[id] = stored
	return nil
}

// Update copies placement and profile fields. Status is left untouched.
func (r *employeeRepository) Update(_ context.Context, employee *domain.Employee) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.employees[employee.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := s.checkPlacement(&domain.Employee{
		UserID:       current.UserID,
		CompanyID:    employee.CompanyID,
		DepartmentID: employee.DepartmentID,
	}); err != nil {
		return err
	}
	current.CompanyID = employee.CompanyID
	current.DepartmentID = employee.DepartmentID
	current.Designation = employee.Designation
	current.HiredOn = cloneTime(employee.HiredOn)
	current.UpdatedAt = s.now()
	s.employees[employee.ID] = current
	employee.UpdatedAt = current.UpdatedAt
	return nil
}

func (r *employeeRepository) UpdateStatus(_ context.Context, id string, expected, next domain.EmployeeStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.employees[id]
	if !ok || current.Status != expected {
		return repository.ErrStaleStatus
	}
	current.Status = next
	current.UpdatedAt = s.now()
	s.employees[id] = current
	return nil
}

func (r *employeeRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return repository.ErrNotFound
	}
	s.deleteEmployeesWhere(func(e domain.Employee) bool { return e.ID == id })
	return nil
}

func (r *employeeRepository) GetByID(_ context.Context, scope visibility.Scope, id string) (*domain.Employee, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employees[id]
	if !ok || !scope.Allows(employee) {
		return nil, repository.ErrNotFound
	}
	hydrated := s.hydrateEmployee(employee)
	return &hydrated, nil
}

func (r *employeeRepository) List(_ context.Context, scope visibility.Scope, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scopedEmployees(scope, filter), nil
}

func (r *employeeRepository) Report(_ context.Context, scope visibility.Scope) ([]domain.EmployeeReportRow, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := s.scopedEmployees(scope, repository.EmployeeFilter{})
	rows := make([]domain.EmployeeReportRow, 0, len(employees))
	for _, e := range employees {
		row := domain.EmployeeReportRow{
			ID:             e.ID,
			CompanyName:    s.companies[e.CompanyID].Name,
			DepartmentName: s.departments[e.DepartmentID].Name,
			Designation:    e.Designation,
			Status:         e.Status,
		}
		if e.User != nil {
			row.Username = e.User.Username
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		if a.DepartmentName != b.DepartmentName {
			return a.DepartmentName < b.DepartmentName
		}
		return a.Username < b.Username
	})
	return rows, nil
}

// scopedEmployees returns hydrated copies in insertion order. Callers hold
// at least the read lock.
func (s *Store) scopedEmployees(scope visibility.Scope, filter repository.EmployeeFilter) []domain.Employee {
	ids := make([]string, 0, len(s.employees))
	for id := range s.employees {
		ids = append(ids, id)
	}
	s.sortByOrder(ids)

	candidates := make([]domain.Employee, 0, len(ids))
	for _, id := range ids {
		e := s.employees[id]
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.DepartmentID != nil && e.DepartmentID != *filter.DepartmentID {
			continue
		}
		candidates = append(candidates, s.hydrateEmployee(e))
	}
	return visibility.Filter(scope, candidates)
}

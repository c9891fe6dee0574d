package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// maxStatusAttempts bounds how often a lost compare-and-set is re-evaluated.
const maxStatusAttempts = 3

// EmployeeService coordinates onboarding, placement and the hiring workflow.
type EmployeeService struct {
	deps Dependencies
}

// EmployeeCreateInput describes onboarding of an existing employee-role user.
type EmployeeCreateInput struct {
	UserID       string
	DepartmentID string
	Designation  string
	HiredOn      *time.Time
}

// EmployeeUpdateInput holds optional placement and profile changes. Status is
// not part of it; status moves through ChangeStatus only.
type EmployeeUpdateInput struct {
	DepartmentID *string
	Designation  *string
	HiredOn      *time.Time
	ClearHiredOn bool
}

// EmployeeListFilter narrows the scoped listing.
type EmployeeListFilter struct {
	Status       string
	DepartmentID string
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps Dependencies) *EmployeeService {
	return &EmployeeService{deps: deps}
}

func (s *EmployeeService) List(ctx context.Context, p *domain.Principal, filter EmployeeListFilter) ([]domain.Employee, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	var repoFilter repository.EmployeeFilter
	if raw := strings.TrimSpace(filter.Status); raw != "" {
		status, err := domain.ParseEmployeeStatus(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "status"})
		}
		repoFilter.Status = &status
	}
	if deptID := strings.TrimSpace(filter.DepartmentID); deptID != "" {
		if err := validateID("department_id", deptID); err != nil {
			return nil, err
		}
		repoFilter.DepartmentID = &deptID
	}
	employees, err := s.deps.Employees.List(ctx, visibility.For(p, visibility.EntityEmployee), repoFilter)
	return employees, mapRepoError(err, "employee")
}

func (s *EmployeeService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Employee, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := knownID("employee", id); err != nil {
		return nil, err
	}
	employee, err := s.deps.Employees.GetByID(ctx, visibility.For(p, visibility.EntityEmployee), id)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	return employee, nil
}

// Create onboards a user as an employee of the department's company. A user
// without a company joins that company in the same transaction.
func (s *EmployeeService) Create(ctx context.Context, p *domain.Principal, input EmployeeCreateInput) (*domain.Employee, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	input.UserID = strings.TrimSpace(input.UserID)
	input.DepartmentID = strings.TrimSpace(input.DepartmentID)
	input.Designation = strings.TrimSpace(input.Designation)
	if err := required("user_id", input.UserID); err != nil {
		return nil, err
	}
	if err := required("department_id", input.DepartmentID); err != nil {
		return nil, err
	}
	if err := required("designation", input.Designation); err != nil {
		return nil, err
	}
	if err := validateID("user_id", input.UserID); err != nil {
		return nil, err
	}

	dept, err := s.lookupDepartment(ctx, p, input.DepartmentID)
	if err != nil {
		return nil, err
	}
	employee := &domain.Employee{
		UserID:       input.UserID,
		CompanyID:    dept.CompanyID,
		DepartmentID: dept.ID,
		Designation:  input.Designation,
		HiredOn:      domain.NormalizeDate(input.HiredOn),
		Status:       domain.InitialEmployeeStatus,
	}
	if !visibility.For(p, visibility.EntityEmployee).Allows(employee) {
		return nil, apperrors.NewForbidden("You do not have permission to onboard employees in this company.")
	}

	user, err := s.deps.Users.GetByID(ctx, visibility.All, input.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewValidationError("User not found.", map[string]any{"field": "user_id"})
	}
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	if user.Role != domain.RoleEmployee {
		return nil, apperrors.NewValidationError("User must have an 'employee' role.", map[string]any{"field": "user_id"})
	}
	if user.CompanyID != nil && *user.CompanyID != dept.CompanyID {
		return nil, apperrors.NewValidationError("User belongs to a different company.", map[string]any{"field": "user_id"})
	}

	err = s.deps.txManager().WithinReadWrite(ctx, func(txCtx context.Context) error {
		if user.CompanyID == nil {
			companyID := dept.CompanyID
			user.CompanyID = &companyID
			if err := s.deps.Users.Update(txCtx, user); err != nil {
				return err
			}
		}
		return s.deps.Employees.Create(txCtx, employee)
	})
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}

	created, err := s.deps.Employees.GetByID(ctx, visibility.All, employee.ID)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	s.publishLifecycle(ctx, p, events.EventEmployeeCreated, created)
	return created, nil
}

// Update changes placement, designation or hire date. Employees may edit
// their own profile fields but not their placement.
func (s *EmployeeService) Update(ctx context.Context, p *domain.Principal, id string, input EmployeeUpdateInput) (*domain.Employee, error) {
	employee, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var moveUser bool
	if input.DepartmentID != nil && strings.TrimSpace(*input.DepartmentID) != employee.DepartmentID {
		if p.Role == domain.RoleEmployee {
			return nil, apperrors.NewForbidden("You do not have permission to change departments.")
		}
		dept, err := s.lookupDepartment(ctx, p, strings.TrimSpace(*input.DepartmentID))
		if err != nil {
			return nil, err
		}
		moveUser = dept.CompanyID != employee.CompanyID
		employee.DepartmentID = dept.ID
		employee.CompanyID = dept.CompanyID
	}
	if input.Designation != nil {
		designation := strings.TrimSpace(*input.Designation)
		if err := required("designation", designation); err != nil {
			return nil, err
		}
		employee.Designation = designation
	}
	switch {
	case input.ClearHiredOn:
		employee.HiredOn = nil
	case input.HiredOn != nil:
		employee.HiredOn = domain.NormalizeDate(input.HiredOn)
	}

	err = s.deps.txManager().WithinReadWrite(ctx, func(txCtx context.Context) error {
		if moveUser {
			user, err := s.deps.Users.GetByID(txCtx, visibility.All, employee.UserID)
			if err != nil {
				return err
			}
			companyID := employee.CompanyID
			user.CompanyID = &companyID
			if err := s.deps.Users.Update(txCtx, user); err != nil {
				return err
			}
		}
		return s.deps.Employees.Update(txCtx, employee)
	})
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}

	updated, err := s.deps.Employees.GetByID(ctx, visibility.All, employee.ID)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	s.publishLifecycle(ctx, p, events.EventEmployeeUpdated, updated)
	return updated, nil
}

// Delete removes the employee profile. The user account stays.
func (s *EmployeeService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	employee, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if p.Role == domain.RoleEmployee {
		return apperrors.NewForbidden("You do not have permission to delete employees.")
	}
	if err := s.deps.Employees.Delete(ctx, employee.ID); err != nil {
		return mapRepoError(err, "employee")
	}
	s.publishLifecycle(ctx, p, events.EventEmployeeDeleted, employee)
	return nil
}

// ChangeStatus moves an employee through the hiring workflow. The write is a
// compare-and-set on the status read; when another writer wins, the request
// is re-evaluated against the fresh state.
func (s *EmployeeService) ChangeStatus(ctx context.Context, p *domain.Principal, id, rawStatus string) (*domain.Employee, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawStatus) == "" {
		return nil, apperrors.NewValidationError("New status is required.", map[string]any{"field": "status"})
	}
	next, err := domain.ParseEmployeeStatus(rawStatus)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "status"})
	}

	if err := knownID("employee", id); err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx, s.deps.logger())
	scope := visibility.For(p, visibility.EntityEmployee)

	for attempt := 1; attempt <= maxStatusAttempts; attempt++ {
		employee, err := s.deps.Employees.GetByID(ctx, scope, id)
		if err != nil {
			return nil, mapRepoError(err, "employee")
		}
		current := employee.Status
		fields := []zap.Field{
			zap.String("employee_id", employee.ID),
			zap.String("user_id", employee.UserID),
			zap.String("actor_id", p.UserID),
			zap.String("old_status", string(current)),
			zap.String("new_status", string(next)),
		}

		if err := domain.CheckTransition(current, next); err != nil {
			logger.Error("employee status change rejected", append(fields, zap.Error(err))...)
			s.deps.Metrics.RecordTransition(string(current), string(next), "rejected")
			var transitionErr *domain.TransitionError
			if errors.As(err, &transitionErr) {
				return nil, apperrors.NewTransitionError(transitionErr)
			}
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "status"})
		}

		actorID := p.UserID
		err = s.deps.txManager().WithinReadWrite(ctx, func(txCtx context.Context) error {
			if err := s.deps.Employees.UpdateStatus(txCtx, employee.ID, current, next); err != nil {
				return err
			}
			return s.deps.History.Create(txCtx, &domain.EmployeeStatusChange{
				EmployeeID: employee.ID,
				ActorID:    &actorID,
				OldStatus:  current,
				NewStatus:  next,
			})
		})
		if errors.Is(err, repository.ErrStaleStatus) {
			logger.Info("employee status changed concurrently, re-evaluating",
				append(fields, zap.Int("attempt", attempt))...)
			s.deps.Metrics.RecordTransition(string(current), string(next), "stale")
			continue
		}
		if err != nil {
			logger.Error("employee status change failed", append(fields, zap.Error(err))...)
			return nil, mapRepoError(err, "employee")
		}

		updated, err := s.deps.Employees.GetByID(ctx, visibility.All, employee.ID)
		if err != nil {
			return nil, mapRepoError(err, "employee")
		}
		logger.Info("employee status changed", fields...)
		s.deps.Metrics.RecordTransition(string(current), string(next), "applied")

		event := events.NewEvent(events.EventEmployeeStatusChanged, updated.ID, events.ActorFrom(p),
			events.EmployeeStatusChangedPayload{
				EmployeeID: updated.ID,
				UserID:     updated.UserID,
				OldStatus:  current,
				NewStatus:  next,
			})
		publishEvent(ctx, s.deps, event.WithCompany(&updated.CompanyID))
		return updated, nil
	}

	return nil, apperrors.NewConflict("Employee status is being changed concurrently; retry the request.",
		map[string]any{"employee_id": id})
}

// History returns the status audit trail of a visible employee, oldest first.
func (s *EmployeeService) History(ctx context.Context, p *domain.Principal, id string) ([]domain.EmployeeStatusChange, error) {
	employee, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	changes, err := s.deps.History.ListByEmployee(ctx, employee.ID)
	return changes, mapRepoError(err, "employee history")
}

// lookupDepartment resolves a department for placement. A missing one is a
// bad request, one outside the caller's department scope is forbidden.
func (s *EmployeeService) lookupDepartment(ctx context.Context, p *domain.Principal, id string) (*domain.Department, error) {
	if err := validateID("department_id", id); err != nil {
		return nil, err
	}
	dept, err := s.deps.Departments.GetByID(ctx, visibility.All, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewValidationError("Department not found.", map[string]any{"field": "department_id"})
	}
	if err != nil {
		return nil, mapRepoError(err, "department")
	}
	if !visibility.For(p, visibility.EntityDepartment).Allows(dept) {
		return nil, apperrors.NewForbidden("You do not have permission to place employees in this department.")
	}
	return dept, nil
}

func (s *EmployeeService) publishLifecycle(ctx context.Context, p *domain.Principal, eventType events.EventType, employee *domain.Employee) {
	event := events.NewEvent(eventType, employee.ID, events.ActorFrom(p), events.EmployeePayload{
		UserID:       employee.UserID,
		DepartmentID: employee.DepartmentID,
		Designation:  employee.Designation,
		Status:       employee.Status,
	})
	publishEvent(ctx, s.deps, event.WithCompany(&employee.CompanyID))
}

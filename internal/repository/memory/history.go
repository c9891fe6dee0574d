package memory

import (
	"context"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
)

type historyRepository struct{ s *Store }

func (r *historyRepository) Create(_ context.Context, change *domain.EmployeeStatusChange) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[change.EmployeeID]; !ok {
		return &repository.ConstraintError{Kind: repository.ErrReferenceMissing, Constraint: "employee_status_history_employee_id_fkey"}
	}
	id, now := s.stamp()
	change.ID, change.CreatedAt = id, now
	stored := *change
	stored.ActorID = cloneString(change.ActorID)
	s.history = append(s.history, stored)
	return nil
}

func (r *historyRepository) ListByEmployee(_ context.Context, employeeID string) ([]domain.EmployeeStatusChange, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.EmployeeStatusChange{}
	for _, h := range s.history {
		if h.EmployeeID == employeeID {
			h.ActorID = cloneString(h.ActorID)
			result = append(result, h)
		}
	}
	return result, nil
}

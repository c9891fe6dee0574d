package repository

import (
	"context"
	"database/sql"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/persistence"
)

// EmployeeHistoryRepository stores status audit entries.
type EmployeeHistoryRepository interface {
	Create(ctx context.Context, change *domain.EmployeeStatusChange) error
	ListByEmployee(ctx context.Context, employeeID string) ([]domain.EmployeeStatusChange, error)
}

type employeeHistoryRepository struct {
	db persistence.Queryer
}

// NewEmployeeHistoryRepository builds repository.
func NewEmployeeHistoryRepository(db persistence.Queryer) EmployeeHistoryRepository {
	return &employeeHistoryRepository{db: db}
}

func (r *employeeHistoryRepository) Create(ctx context.Context, change *domain.EmployeeStatusChange) error {
	const query = `
        INSERT INTO employee_status_history (employee_id, actor_id, old_status, new_status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		change.EmployeeID,
		change.ActorID,
		string(change.OldStatus),
		string(change.NewStatus),
	).Scan(&change.ID, &change.CreatedAt)
	return translatePgError(err)
}

func (r *employeeHistoryRepository) ListByEmployee(ctx context.Context, employeeID string) ([]domain.EmployeeStatusChange, error) {
	const query = `
        SELECT id, employee_id, actor_id, old_status, new_status, created_at
        FROM employee_status_history WHERE employee_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.EmployeeStatusChange{}
	for rows.Next() {
		var (
			change    domain.EmployeeStatusChange
			actorID   sql.NullString
			oldStatus string
			newStatus string
		)
		if err := rows.Scan(
			&change.ID,
			&change.EmployeeID,
			&actorID,
			&oldStatus,
			&newStatus,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		change.ActorID = nullableString(actorID)
		change.OldStatus = domain.EmployeeStatus(oldStatus)
		change.NewStatus = domain.EmployeeStatus(newStatus)
		result = append(result, change)
	}
	return result, translatePgError(rows.Err())
}

package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/persistence"
	"github.com/spec-kit/employee-service/internal/visibility"
)

// DepartmentFilter narrows a scoped department list.
type DepartmentFilter struct {
	CompanyID *string
}

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.Department, error)
	List(ctx context.Context, scope visibility.Scope, filter DepartmentFilter) ([]domain.Department, error)
}

type departmentRepository struct {
	db persistence.Queryer
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db persistence.Queryer) DepartmentRepository {
	return &departmentRepository{db: db}
}

const departmentColumns = `d.id, d.company_id, c.name, d.name, d.created_at, d.updated_at`

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        WITH inserted AS (
            INSERT INTO departments (company_id, name)
            VALUES ($1,$2)
            RETURNING id, company_id, created_at, updated_at
        )
        SELECT i.id, c.name, i.created_at, i.updated_at
        FROM inserted i JOIN companies c ON c.id = i.company_id`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		dept.CompanyID,
		dept.Name,
	).Scan(&dept.ID, &dept.CompanyName, &dept.CreatedAt, &dept.UpdatedAt)
	return translatePgError(err)
}

// Update renames the department. The owning company is fixed once created.
func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, dept.Name, dept.ID).
		Scan(&dept.UpdatedAt)
	return translatePgError(err)
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QueryerFromContext(ctx, r.db).Exec(ctx, `DELETE FROM departments WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.Department, error) {
	clause, args := scopeClause(scope, departmentScopeColumns, []any{id})
	query := `
        SELECT ` + departmentColumns + `
        FROM departments d JOIN companies c ON c.id = d.company_id
        WHERE d.id=$1 AND ` + clause

	var dept domain.Department
	if err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, args...).Scan(
		&dept.ID,
		&dept.CompanyID,
		&dept.CompanyName,
		&dept.Name,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context, scope visibility.Scope, filter DepartmentFilter) ([]domain.Department, error) {
	clause, args := scopeClause(scope, departmentScopeColumns, nil)
	clauses := clause
	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		clauses += fmt.Sprintf(" AND d.company_id=$%d", len(args))
	}
	query := `
        SELECT ` + departmentColumns + `
        FROM departments d JOIN companies c ON c.id = d.company_id
        WHERE ` + clauses + ` ORDER BY c.name ASC, d.name ASC`

	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Department{}
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.CompanyID, &dept.CompanyName, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, translatePgError(rows.Err())
}

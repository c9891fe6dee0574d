package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/persistence"
	"github.com/spec-kit/employee-service/internal/visibility"
)

// EmployeeFilter narrows a scoped employee list.
type EmployeeFilter struct {
	Status       *domain.EmployeeStatus
	DepartmentID *string
}

// EmployeeRepository encapsulates employee persistence. Update never writes
// status; UpdateStatus is the only status mutation.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	UpdateStatus(ctx context.Context, id string, expected, next domain.EmployeeStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.Employee, error)
	List(ctx context.Context, scope visibility.Scope, filter EmployeeFilter) ([]domain.Employee, error)
	Report(ctx context.Context, scope visibility.Scope) ([]domain.EmployeeReportRow, error)
}

type employeeRepository struct {
	db persistence.Queryer
}

// NewEmployeeRepository instantiates repository.
func NewEmployeeRepository(db persistence.Queryer) EmployeeRepository {
	return &employeeRepository{db: db}
}

const employeeSelect = `
        SELECT e.id, e.user_id, e.company_id, e.department_id, e.designation, e.hired_on, e.status,
               e.created_at, e.updated_at,
               u.username, u.email, u.role, u.phone, u.company_id
        FROM employees e JOIN users u ON u.id = e.user_id`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (user_id, company_id, department_id, designation, hired_on, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		employee.UserID,
		employee.CompanyID,
		employee.DepartmentID,
		employee.Designation,
		employee.HiredOn,
		string(employee.Status),
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	return translatePgError(err)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	const query = `
        UPDATE employees SET company_id=$1, department_id=$2, designation=$3, hired_on=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		employee.CompanyID,
		employee.DepartmentID,
		employee.Designation,
		employee.HiredOn,
		employee.ID,
	).Scan(&employee.UpdatedAt)
	return translatePgError(err)
}

// UpdateStatus moves the employee to next only while it still holds expected.
func (r *employeeRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.EmployeeStatus) error {
	const query = `
        UPDATE employees SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := persistence.QueryerFromContext(ctx, r.db).Exec(ctx, query, string(next), id, string(expected))
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QueryerFromContext(ctx, r.db).Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.Employee, error) {
	clause, args := scopeClause(scope, employeeScopeColumns, []any{id})
	query := employeeSelect + ` WHERE e.id=$1 AND ` + clause
	return scanEmployee(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, args...))
}

func (r *employeeRepository) List(ctx context.Context, scope visibility.Scope, filter EmployeeFilter) ([]domain.Employee, error) {
	clause, args := scopeClause(scope, employeeScopeColumns, nil)
	clauses := []string{clause}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("e.status=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("e.department_id=$%d", len(args)))
	}
	query := employeeSelect + ` WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY e.created_at ASC, e.id ASC`

	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *employee)
	}
	return result, translatePgError(rows.Err())
}

// Report returns the flattened projection over the scoped set.
func (r *employeeRepository) Report(ctx context.Context, scope visibility.Scope) ([]domain.EmployeeReportRow, error) {
	clause, args := scopeClause(scope, employeeScopeColumns, nil)
	query := `
        SELECT e.id, u.username, c.name, d.name, e.designation, e.status
        FROM employees e
        JOIN users u ON u.id = e.user_id
        JOIN companies c ON c.id = e.company_id
        JOIN departments d ON d.id = e.department_id
        WHERE ` + clause + `
        ORDER BY c.name ASC, d.name ASC, u.username ASC`

	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.EmployeeReportRow{}
	for rows.Next() {
		var (
			row    domain.EmployeeReportRow
			status string
		)
		if err := rows.Scan(&row.ID, &row.Username, &row.CompanyName, &row.DepartmentName, &row.Designation, &status); err != nil {
			return nil, err
		}
		row.Status = domain.EmployeeStatus(status)
		result = append(result, row)
	}
	return result, translatePgError(rows.Err())
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		employee      domain.Employee
		user          domain.User
		hiredOn       sql.NullTime
		status        string
		role          string
		phone         sql.NullString
		userCompanyID sql.NullString
	)
	if err := row.Scan(
		&employee.ID,
		&employee.UserID,
		&employee.CompanyID,
		&employee.DepartmentID,
		&employee.Designation,
		&hiredOn,
		&status,
		&employee.CreatedAt,
		&employee.UpdatedAt,
		&user.Username,
		&user.Email,
		&role,
		&phone,
		&userCompanyID,
	); err != nil {
		return nil, translatePgError(err)
	}
	if hiredOn.Valid {
		hired := hiredOn.Time
		employee.HiredOn = &hired
	}
	employee.Status = domain.EmployeeStatus(status)

	user.ID = employee.UserID
	user.Role = domain.Role(role)
	user.Phone = nullableString(phone)
	user.CompanyID = nullableString(userCompanyID)
	employee.User = &user
	return &employee, nil
}

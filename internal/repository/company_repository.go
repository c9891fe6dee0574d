package repository

import (
	"context"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/persistence"
	"github.com/spec-kit/employee-service/internal/visibility"
)

// CompanyRepository manages tenant roots.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.Company, error)
	List(ctx context.Context, scope visibility.Scope) ([]domain.Company, error)
}

type companyRepository struct {
	db persistence.Queryer
}

// NewCompanyRepository returns a Postgres-backed implementation.
func NewCompanyRepository(db persistence.Queryer) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (name)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, company.Name).
		Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
	return translatePgError(err)
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const query = `
        UPDATE companies SET name=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, company.Name, company.ID).
		Scan(&company.UpdatedAt)
	return translatePgError(err)
}

// Delete removes the company. Departments and employees cascade and member
// users lose their company.
func (r *companyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QueryerFromContext(ctx, r.db).Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *companyRepository) GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.Company, error) {
	clause, args := scopeClause(scope, companyScopeColumns, []any{id})
	query := `
        SELECT c.id, c.name, c.created_at, c.updated_at
        FROM companies c WHERE c.id=$1 AND ` + clause

	var company domain.Company
	if err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, args...).Scan(
		&company.ID,
		&company.Name,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &company, nil
}

func (r *companyRepository) List(ctx context.Context, scope visibility.Scope) ([]domain.Company, error) {
	clause, args := scopeClause(scope, companyScopeColumns, nil)
	query := `
        SELECT c.id, c.name, c.created_at, c.updated_at
        FROM companies c WHERE ` + clause + ` ORDER BY c.name ASC`

	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.Company{}
	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, company)
	}
	return result, translatePgError(rows.Err())
}

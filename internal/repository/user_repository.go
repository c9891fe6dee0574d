package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/persistence"
	"github.com/spec-kit/employee-service/internal/visibility"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, scope visibility.Scope) ([]domain.User, error)
}

type userRepository struct {
	db persistence.Queryer
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db persistence.Queryer) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.role, u.phone, u.company_id, u.created_at, u.updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, role, phone, company_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Phone,
		user.CompanyID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translatePgError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, password_hash=$3, role=$4, phone=$5, company_id=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Phone,
		user.CompanyID,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translatePgError(err)
}

// Delete removes the user; the employee profile cascades.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := persistence.QueryerFromContext(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, scope visibility.Scope, id string) (*domain.User, error) {
	clause, args := scopeClause(scope, userScopeColumns, []any{id})
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id=$1 AND ` + clause
	return scanUser(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, args...))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.username=$1`
	return scanUser(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, username))
}

// GetByEmail matches case-insensitively and picks the oldest account when
// several share an address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE lower(u.email)=lower($1) ORDER BY u.created_at ASC LIMIT 1`
	return scanUser(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, scope visibility.Scope) ([]domain.User, error) {
	clause, args := scopeClause(scope, userScopeColumns, nil)
	query := `SELECT ` + userColumns + ` FROM users u WHERE ` + clause + ` ORDER BY u.username ASC`

	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, translatePgError(rows.Err())
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user      domain.User
		role      string
		phone     sql.NullString
		companyID sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&phone,
		&companyID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	user.Role = domain.Role(role)
	user.Phone = nullableString(phone)
	user.CompanyID = nullableString(companyID)
	return &user, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

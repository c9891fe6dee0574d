package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/persistence"
	"github.com/spec-kit/employee-service/internal/repository"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// Dependencies bundles what the domain services share.
type Dependencies struct {
	Companies   repository.CompanyRepository
	Departments repository.DepartmentRepository
	Users       repository.UserRepository
	Employees   repository.EmployeeRepository
	History     repository.EmployeeHistoryRepository
	Tx          persistence.TxManager
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

func (d Dependencies) txManager() persistence.TxManager {
	if d.Tx == nil {
		return persistence.NoopTxManager{}
	}
	return d.Tx
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

var conflictMessages = map[string]string{
	"companies_name_unique": "A company with this name already exists.",
	"users_username_unique": "A user with that username already exists.",
	"employees_user_unique": "An employee profile already exists for this user.",
}

var referenceMessages = map[string]string{
	"users_company_id_fkey":           "Company not found.",
	"departments_company_id_fkey":     "Company not found.",
	"employees_user_id_fkey":          "User not found.",
	"employees_company_id_fkey":       "Company not found.",
	"employees_department_company_fk": "Department does not belong to the employee's company.",
}

// mapRepoError converts repository sentinels into API errors.
func mapRepoError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	constraint := repository.Constraint(err)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		msg, ok := conflictMessages[constraint]
		if !ok {
			msg = resource + " conflicts with existing data"
		}
		return apperrors.NewConflict(msg, constraintDetails(constraint))
	case errors.Is(err, repository.ErrReferenceMissing):
		msg, ok := referenceMessages[constraint]
		if !ok {
			msg = "referenced record does not exist"
		}
		return apperrors.NewValidationError(msg, constraintDetails(constraint))
	case errors.Is(err, repository.ErrInvalidValue):
		return apperrors.NewValidationError("value rejected for "+resource, constraintDetails(constraint))
	}
	return apperrors.NewInternalError(err)
}

func constraintDetails(constraint string) map[string]any {
	if constraint == "" {
		return nil
	}
	return map[string]any{"constraint": constraint}
}

func requirePrincipal(p *domain.Principal) error {
	if p == nil || p.UserID == "" {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	return nil
}

// validateID rejects ids that cannot name a row so filters and request
// bodies fail as 400 instead of matching nothing.
func validateID(field, raw string) error {
	if _, err := uuid.Parse(raw); err != nil {
		return apperrors.NewValidationError(field+" must be a valid id", map[string]any{"field": field})
	}
	return nil
}

// knownID treats a malformed path id like a row that does not exist.
func knownID(resource, raw string) error {
	if _, err := uuid.Parse(raw); err != nil {
		return apperrors.NewNotFound(resource, nil)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return nil
}

// publishEvent hands event to the dispatcher. Delivery problems never fail
// the request that produced the event.
func publishEvent(ctx context.Context, deps Dependencies, event events.Event) {
	if deps.Dispatcher == nil {
		return
	}
	if err := deps.Dispatcher.Publish(ctx, event); err != nil {
		observability.LoggerFromContext(ctx, deps.logger()).Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/employee-service/internal/auth"
	"github.com/spec-kit/employee-service/internal/config"
	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/repository/memory"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

const testPassword = "s3cret-pass"

// world is a two-tenant dataset: Acme with a manager and an onboarded
// employee, Globex with its own department and employee.
type world struct {
	store      *memory.Store
	deps       Dependencies
	dispatcher events.Dispatcher
	logs       *observer.ObservedLogs
	metrics    *observability.Metrics

	acme, globex         domain.Company
	acmeDev, globexSales domain.Department

	admin, manager, worker, rival *domain.User
	workerEmployee, rivalEmployee *domain.Employee

	asAdmin, asManager, asWorker *domain.Principal
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	w := &world{
		store:      store,
		dispatcher: dispatcher,
		logs:       logs,
		metrics:    metrics,
		deps: Dependencies{
			Companies:   store.Companies(),
			Departments: store.Departments(),
			Users:       store.Users(),
			Employees:   store.Employees(),
			History:     store.History(),
			Dispatcher:  dispatcher,
			Logger:      zap.New(core),
			Metrics:     metrics,
		},
	}

	w.acme = domain.Company{Name: "Acme"}
	require.NoError(t, store.Companies().Create(ctx, &w.acme))
	w.globex = domain.Company{Name: "Globex"}
	require.NoError(t, store.Companies().Create(ctx, &w.globex))

	w.acmeDev = domain.Department{CompanyID: w.acme.ID, Name: "Development"}
	require.NoError(t, store.Departments().Create(ctx, &w.acmeDev))
	w.globexSales = domain.Department{CompanyID: w.globex.ID, Name: "Sales"}
	require.NoError(t, store.Departments().Create(ctx, &w.globexSales))

	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)

	w.admin = w.addUser(t, "root", "root@example.com", hash, domain.RoleAdmin, nil)
	w.manager = w.addUser(t, "mona", "mona@acme.test", hash, domain.RoleManager, &w.acme.ID)
	w.worker = w.addUser(t, "walt", "walt@acme.test", hash, domain.RoleEmployee, &w.acme.ID)
	w.rival = w.addUser(t, "gina", "gina@globex.test", hash, domain.RoleEmployee, &w.globex.ID)

	w.workerEmployee = w.addEmployee(t, w.worker, w.acmeDev)
	w.rivalEmployee = w.addEmployee(t, w.rival, w.globexSales)

	w.asAdmin = domain.PrincipalFromUser(w.admin)
	w.asManager = domain.PrincipalFromUser(w.manager)
	w.asWorker = domain.PrincipalFromUser(w.worker)
	return w
}

func (w *world) addUser(t *testing.T, username, email, hash string, role domain.Role, companyID *string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Email: email, PasswordHash: hash, Role: role, CompanyID: companyID}
	require.NoError(t, w.store.Users().Create(context.Background(), user))
	return user
}

func (w *world) addEmployee(t *testing.T, user *domain.User, dept domain.Department) *domain.Employee {
	t.Helper()
	employee := &domain.Employee{
		UserID:       user.ID,
		CompanyID:    dept.CompanyID,
		DepartmentID: dept.ID,
		Designation:  "Engineer",
		Status:       domain.InitialEmployeeStatus,
	}
	require.NoError(t, w.store.Employees().Create(context.Background(), employee))
	return employee
}

func (w *world) captureEvents(types ...events.EventType) *[]events.Event {
	captured := &[]events.Event{}
	for _, eventType := range types {
		w.dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			*captured = append(*captured, event)
			return nil
		})
	}
	return captured
}

func (w *world) authService() *AuthService {
	cfg := config.Config{
		App:  config.AppConfig{Name: "employee-service"},
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4},
	}
	return NewAuthService(cfg, w.deps)
}

func assertCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, code, de.Code, "message: %s", de.Message)
	return de
}

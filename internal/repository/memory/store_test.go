package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
)

type seeded struct {
	store    *Store
	company  domain.Company
	other    domain.Company
	dept     domain.Department
	user     domain.User
	employee domain.Employee
}

func seed(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	s := NewStore()

	acme := domain.Company{Name: "Acme"}
	require.NoError(t, s.Companies().Create(ctx, &acme))
	globex := domain.Company{Name: "Globex"}
	require.NoError(t, s.Companies().Create(ctx, &globex))

	dept := domain.Department{CompanyID: acme.ID, Name: "R&D"}
	require.NoError(t, s.Departments().Create(ctx, &dept))

	user := domain.User{Username: "alice", Email: "Alice@Example.com", Role: domain.RoleEmployee, CompanyID: &acme.ID}
	require.NoError(t, s.Users().Create(ctx, &user))

	employee := domain.Employee{
		UserID: user.ID, CompanyID: acme.ID, DepartmentID: dept.ID,
		Designation: "Engineer", Status: domain.InitialEmployeeStatus,
	}
	require.NoError(t, s.Employees().Create(ctx, &employee))

	return seeded{store: s, company: acme, other: globex, dept: dept, user: user, employee: employee}
}

func TestStore_UniqueConstraints(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()

	err := f.store.Companies().Create(ctx, &domain.Company{Name: "Acme"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = f.store.Users().Create(ctx, &domain.User{Username: "alice", Role: domain.RoleEmployee})
	assert.ErrorIs(t, err, repository.ErrConflict)

	dup := domain.Employee{UserID: f.user.ID, CompanyID: f.company.ID, DepartmentID: f.dept.ID, Status: domain.InitialEmployeeStatus}
	err = f.store.Employees().Create(ctx, &dup)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, "employees_user_unique", repository.Constraint(err))
}

func TestStore_DepartmentMustBelongToEmployeeCompany(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()

	bob := domain.User{Username: "bob", Role: domain.RoleEmployee}
	require.NoError(t, f.store.Users().Create(ctx, &bob))

	mismatched := domain.Employee{UserID: bob.ID, CompanyID: f.other.ID, DepartmentID: f.dept.ID, Status: domain.InitialEmployeeStatus}
	err := f.store.Employees().Create(ctx, &mismatched)
	assert.ErrorIs(t, err, repository.ErrReferenceMissing)
}

func TestStore_UpdateStatusCompareAndSet(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()
	repo := f.store.Employees()

	require.NoError(t, repo.UpdateStatus(ctx, f.employee.ID, domain.StatusApplicationReceived, domain.StatusInterviewScheduled))
	err := repo.UpdateStatus(ctx, f.employee.ID, domain.StatusApplicationReceived, domain.StatusNotAccepted)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	got, err := repo.GetByID(ctx, visibility.All, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterviewScheduled, got.Status)

	// generic update leaves status alone
	got.Designation = "Lead"
	got.Status = domain.StatusHired
	require.NoError(t, repo.Update(ctx, got))
	reloaded, err := repo.GetByID(ctx, visibility.All, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead", reloaded.Designation)
	assert.Equal(t, domain.StatusInterviewScheduled, reloaded.Status)
}

func TestStore_CompanyDeleteCascades(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()

	require.NoError(t, f.store.Companies().Delete(ctx, f.company.ID))

	_, err := f.store.Departments().GetByID(ctx, visibility.All, f.dept.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.Employees().GetByID(ctx, visibility.All, f.employee.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	user, err := f.store.Users().GetByID(ctx, visibility.All, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, user.CompanyID)
}

func TestStore_UserDeleteCascadesEmployee(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()

	actor := f.user.ID
	require.NoError(t, f.store.History().Create(ctx, &domain.EmployeeStatusChange{
		EmployeeID: f.employee.ID, ActorID: &actor,
		OldStatus: domain.StatusApplicationReceived, NewStatus: domain.StatusInterviewScheduled,
	}))

	require.NoError(t, f.store.Users().Delete(ctx, f.user.ID))
	_, err := f.store.Employees().GetByID(ctx, visibility.All, f.employee.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	history, err := f.store.History().ListByEmployee(ctx, f.employee.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_ScopedReads(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()

	otherManager := &domain.Principal{UserID: "m2", Role: domain.RoleManager, CompanyID: &f.other.ID}
	_, err := f.store.Employees().GetByID(ctx, visibility.For(otherManager, visibility.EntityEmployee), f.employee.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	self := &domain.Principal{UserID: f.user.ID, Role: domain.RoleEmployee, CompanyID: &f.company.ID}
	list, err := f.store.Employees().List(ctx, visibility.For(self, visibility.EntityEmployee), repository.EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "alice", list[0].User.Username)

	report, err := f.store.Employees().Report(ctx, visibility.For(self, visibility.EntityEmployee))
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, domain.EmployeeReportRow{
		ID: f.employee.ID, Username: "alice", CompanyName: "Acme", DepartmentName: "R&D",
		Designation: "Engineer", Status: domain.StatusApplicationReceived,
	}, report[0])

	found, err := f.store.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, found.ID)
}

func TestStore_CompanyRenamePropagatesToDepartments(t *testing.T) {
	t.Parallel()
	f := seed(t)
	ctx := context.Background()

	renamed := domain.Company{ID: f.company.ID, Name: "Acme Holdings"}
	require.NoError(t, f.store.Companies().Update(ctx, &renamed))

	dept, err := f.store.Departments().GetByID(ctx, visibility.All, f.dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", dept.CompanyName)

	clash := domain.Company{ID: f.company.ID, Name: "Globex"}
	assert.ErrorIs(t, f.store.Companies().Update(ctx, &clash), repository.ErrConflict)
}

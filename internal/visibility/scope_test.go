package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-service/internal/domain"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	companies   []domain.Company
	departments []domain.Department
	users       []domain.User
	employees   []domain.Employee
}

func newFixture() fixture {
	return fixture{
		companies: []domain.Company{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}},
		departments: []domain.Department{
			{ID: "d1", CompanyID: "c1", Name: "R&D"},
			{ID: "d2", CompanyID: "c2", Name: "Sales"},
			{ID: "d3", CompanyID: "c1", Name: "Ops"},
		},
		users: []domain.User{
			{ID: "u-admin", Role: domain.RoleAdmin},
			{ID: "u-m1", Role: domain.RoleManager, CompanyID: strPtr("c1")},
			{ID: "u-e1", Role: domain.RoleEmployee, CompanyID: strPtr("c1")},
			{ID: "u-e2", Role: domain.RoleEmployee, CompanyID: strPtr("c2")},
			{ID: "u-orphan", Role: domain.RoleEmployee},
		},
		employees: []domain.Employee{
			{ID: "e1", UserID: "u-e1", CompanyID: "c1", DepartmentID: "d1"},
			{ID: "e2", UserID: "u-e2", CompanyID: "c2", DepartmentID: "d2"},
		},
	}
}

func TestFor_PolicyTable(t *testing.T) {
	t.Parallel()

	admin := &domain.Principal{UserID: "u-admin", Role: domain.RoleAdmin}
	manager := &domain.Principal{UserID: "u-m1", Role: domain.RoleManager, CompanyID: strPtr("c1")}
	employee := &domain.Principal{UserID: "u-e1", Role: domain.RoleEmployee, CompanyID: strPtr("c1")}
	stranger := &domain.Principal{UserID: "u-x", Role: domain.Role("auditor"), CompanyID: strPtr("c1")}

	cases := []struct {
		name      string
		principal *domain.Principal
		want      map[Entity]Kind
	}{
		{"admin", admin, map[Entity]Kind{EntityUser: KindAll, EntityCompany: KindAll, EntityDepartment: KindAll, EntityEmployee: KindAll}},
		{"manager", manager, map[Entity]Kind{EntityUser: KindCompany, EntityCompany: KindCompany, EntityDepartment: KindCompany, EntityEmployee: KindCompany}},
		{"employee", employee, map[Entity]Kind{EntityUser: KindSelf, EntityCompany: KindNone, EntityDepartment: KindNone, EntityEmployee: KindSelf}},
		{"unknown role", stranger, map[Entity]Kind{EntityUser: KindNone, EntityCompany: KindNone, EntityDepartment: KindNone, EntityEmployee: KindNone}},
		{"nil principal", nil, map[Entity]Kind{EntityUser: KindNone, EntityCompany: KindNone, EntityDepartment: KindNone, EntityEmployee: KindNone}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for entity, kind := range tc.want {
				assert.Equal(t, kind, For(tc.principal, entity).Kind, "entity %s", entity)
			}
		})
	}
}

func TestFor_ManagerWithoutCompanyFailsClosed(t *testing.T) {
	t.Parallel()

	manager := &domain.Principal{UserID: "u-m", Role: domain.RoleManager}
	f := newFixture()

	for _, entity := range []Entity{EntityUser, EntityCompany, EntityDepartment, EntityEmployee} {
		assert.True(t, For(manager, entity).Empty())
	}
	assert.Empty(t, Filter(For(manager, EntityDepartment), f.departments))

	blank := &domain.Principal{UserID: "u-m", Role: domain.RoleManager, CompanyID: strPtr("")}
	assert.True(t, For(blank, EntityEmployee).Empty())
}

func TestFilter_ManagerNeverSeesOtherCompanies(t *testing.T) {
	t.Parallel()

	f := newFixture()
	manager := &domain.Principal{UserID: "u-m1", Role: domain.RoleManager, CompanyID: strPtr("c1")}

	companies := Filter(For(manager, EntityCompany), f.companies)
	require.Len(t, companies, 1)
	assert.Equal(t, "c1", companies[0].ID)

	for _, d := range Filter(For(manager, EntityDepartment), f.departments) {
		assert.Equal(t, "c1", d.CompanyID)
	}
	for _, e := range Filter(For(manager, EntityEmployee), f.employees) {
		assert.Equal(t, "c1", e.CompanyID)
	}
	users := Filter(For(manager, EntityUser), f.users)
	for _, u := range users {
		require.NotNil(t, u.CompanyID)
		assert.Equal(t, "c1", *u.CompanyID)
	}
	assert.Len(t, users, 2)
}

func TestFilter_EmployeeSeesOnlySelf(t *testing.T) {
	t.Parallel()

	f := newFixture()
	employee := &domain.Principal{UserID: "u-e1", Role: domain.RoleEmployee, CompanyID: strPtr("c1")}

	employees := Filter(For(employee, EntityEmployee), f.employees)
	require.LessOrEqual(t, len(employees), 1)
	require.Len(t, employees, 1)
	assert.Equal(t, "u-e1", employees[0].UserID)

	users := Filter(For(employee, EntityUser), f.users)
	require.Len(t, users, 1)
	assert.Equal(t, "u-e1", users[0].ID)

	assert.Empty(t, Filter(For(employee, EntityCompany), f.companies))
	assert.Empty(t, Filter(For(employee, EntityDepartment), f.departments))

	orphan := &domain.Principal{UserID: "u-orphan", Role: domain.RoleEmployee}
	assert.Empty(t, Filter(For(orphan, EntityEmployee), f.employees))
}

func TestFilter_IdempotentAndPure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	principals := []*domain.Principal{
		{UserID: "u-admin", Role: domain.RoleAdmin},
		{UserID: "u-m1", Role: domain.RoleManager, CompanyID: strPtr("c1")},
		{UserID: "u-e2", Role: domain.RoleEmployee, CompanyID: strPtr("c2")},
	}

	for _, p := range principals {
		scope := For(p, EntityEmployee)
		once := Filter(scope, f.employees)
		twice := Filter(scope, once)
		assert.Equal(t, once, twice)
		assert.Equal(t, once, Filter(For(p, EntityEmployee), f.employees))
	}
}

func TestScope_AllowsPointerRecords(t *testing.T) {
	t.Parallel()

	scope := Scope{Kind: KindCompany, CompanyID: "c1"}
	emp := &domain.Employee{ID: "e1", CompanyID: "c1"}
	assert.True(t, scope.Allows(emp))
	assert.False(t, None.Allows(emp))

	// a record with no company never matches a company scope
	assert.False(t, scope.Allows(domain.User{ID: "u"}))
}

func TestScope_Key(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "all", Scope{Kind: KindAll}.Key())
	assert.Equal(t, "company:c1", Scope{Kind: KindCompany, CompanyID: "c1"}.Key())
	assert.Equal(t, "self:u1", Scope{Kind: KindSelf, UserID: "u1"}.Key())
	assert.Equal(t, "none", None.Key())
}

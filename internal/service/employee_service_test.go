package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/repository"
)

func TestChangeStatus_HiringPath(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()
	id := w.workerEmployee.ID

	employee, err := svc.ChangeStatus(ctx, w.asManager, id, "interview_scheduled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterviewScheduled, employee.Status)

	employee, err = svc.ChangeStatus(ctx, w.asManager, id, "hired")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHired, employee.Status)

	_, err = svc.ChangeStatus(ctx, w.asManager, id, "not_accepted")
	de := assertCode(t, err, "TERMINAL_STATE")
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)

	current, err := svc.Get(ctx, w.asAdmin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHired, current.Status)

	history, err := svc.History(ctx, w.asManager, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.StatusApplicationReceived, history[0].OldStatus)
	assert.Equal(t, domain.StatusHired, history[1].NewStatus)
	require.NotNil(t, history[1].ActorID)
	assert.Equal(t, w.manager.ID, *history[1].ActorID)
}

func TestChangeStatus_SkippingInterviewIsRejected(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, w.asAdmin, w.workerEmployee.ID, "hired")
	de := assertCode(t, err, "INVALID_TRANSITION")
	assert.Equal(t, "invalid status transition from 'application_received' to 'hired'", de.Message)

	current, err := svc.Get(ctx, w.asAdmin, w.workerEmployee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplicationReceived, current.Status)

	rejected := w.logs.FilterMessage("employee status change rejected").All()
	require.Len(t, rejected, 1)
	fields := rejected[0].ContextMap()
	assert.Equal(t, w.workerEmployee.ID, fields["employee_id"])
	assert.Equal(t, w.admin.ID, fields["actor_id"])
	assert.Equal(t, "application_received", fields["old_status"])
	assert.Equal(t, "hired", fields["new_status"])
	assert.Equal(t, int64(1), w.metrics.Snapshot().Transitions["application_received->hired|rejected"])
}

func TestChangeStatus_InputValidation(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	de := assertCode(t, errOnly(svc.ChangeStatus(ctx, w.asAdmin, w.workerEmployee.ID, "  ")), "VALIDATION_FAILED")
	assert.Equal(t, "New status is required.", de.Message)

	assertCode(t, errOnly(svc.ChangeStatus(ctx, w.asAdmin, w.workerEmployee.ID, "promoted")), "VALIDATION_FAILED")
	assertCode(t, errOnly(svc.ChangeStatus(ctx, nil, w.workerEmployee.ID, "hired")), "UNAUTHORIZED")
}

func TestChangeStatus_Scope(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	// another tenant's employee is invisible to the manager
	assertCode(t, errOnly(svc.ChangeStatus(ctx, w.asManager, w.rivalEmployee.ID, "interview_scheduled")), "NOT_FOUND")
	assertCode(t, errOnly(svc.ChangeStatus(ctx, w.asWorker, w.rivalEmployee.ID, "interview_scheduled")), "NOT_FOUND")
	assertCode(t, errOnly(svc.ChangeStatus(ctx, w.asManager, "not-a-uuid", "interview_scheduled")), "NOT_FOUND")

	// an employee's own record is in scope, so the workflow decides
	assertCode(t, errOnly(svc.ChangeStatus(ctx, w.asWorker, w.workerEmployee.ID, "hired")), "INVALID_TRANSITION")
	own, err := svc.ChangeStatus(ctx, w.asWorker, w.workerEmployee.ID, "interview_scheduled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterviewScheduled, own.Status)

	history, err := svc.History(ctx, w.asWorker, w.workerEmployee.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].ActorID)
	assert.Equal(t, w.worker.ID, *history[0].ActorID)

	rival, err := svc.Get(ctx, w.asAdmin, w.rivalEmployee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplicationReceived, rival.Status)
}

func TestChangeStatus_ConcurrentRequestsApplyOnce(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()
	published := w.captureEvents(events.EventEmployeeStatusChanged)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ChangeStatus(ctx, w.asManager, w.workerEmployee.ID, "interview_scheduled")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, callers-1)
	for _, err := range failures {
		assertCode(t, err, "INVALID_TRANSITION")
	}

	final, err := svc.Get(ctx, w.asAdmin, w.workerEmployee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInterviewScheduled, final.Status)

	history, err := svc.History(ctx, w.asAdmin, w.workerEmployee.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Len(t, *published, 1)
}

// staleOnce makes the first compare-and-set lose to a simulated writer that
// already moved the employee.
type staleOnce struct {
	repository.EmployeeRepository
	once sync.Once
}

func (s *staleOnce) UpdateStatus(ctx context.Context, id string, expected, next domain.EmployeeStatus) error {
	var raced bool
	s.once.Do(func() {
		raced = true
		_ = s.EmployeeRepository.UpdateStatus(ctx, id, expected, domain.StatusNotAccepted)
	})
	if raced {
		return repository.ErrStaleStatus
	}
	return s.EmployeeRepository.UpdateStatus(ctx, id, expected, next)
}

func TestChangeStatus_ReevaluatesAfterLostRace(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	w.deps.Employees = &staleOnce{EmployeeRepository: w.store.Employees()}
	svc := NewEmployeeService(w.deps)

	_, err := svc.ChangeStatus(context.Background(), w.asAdmin, w.workerEmployee.ID, "interview_scheduled")
	de := assertCode(t, err, "TERMINAL_STATE")
	assert.Equal(t, "not_accepted", de.Details["current_status"])
	assert.Len(t, w.logs.FilterMessage("employee status changed concurrently, re-evaluating").All(), 1)
}

func TestEmployeeCreate_Onboarding(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()
	published := w.captureEvents(events.EventEmployeeCreated)

	// a freshly registered employee-role user without a company
	newcomer := w.addUser(t, "nina", "nina@example.com", "x", domain.RoleEmployee, nil)
	hired := time.Date(2025, 1, 6, 17, 45, 0, 0, time.UTC)

	employee, err := svc.Create(ctx, w.asManager, EmployeeCreateInput{
		UserID:       newcomer.ID,
		DepartmentID: w.acmeDev.ID,
		Designation:  "  QA  ",
		HiredOn:      &hired,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplicationReceived, employee.Status)
	assert.Equal(t, w.acme.ID, employee.CompanyID)
	assert.Equal(t, "QA", employee.Designation)
	require.NotNil(t, employee.HiredOn)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), *employee.HiredOn)
	require.NotNil(t, employee.User)
	assert.Equal(t, "nina", employee.User.Username)
	assert.Len(t, *published, 1)

	user, err := w.store.Users().GetByUsername(ctx, "nina")
	require.NoError(t, err)
	require.NotNil(t, user.CompanyID)
	assert.Equal(t, w.acme.ID, *user.CompanyID)

	_, err = svc.Create(ctx, w.asManager, EmployeeCreateInput{UserID: newcomer.ID, DepartmentID: w.acmeDev.ID, Designation: "QA"})
	assertCode(t, err, "CONFLICT")
}

func TestEmployeeCreate_Rejections(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()
	outsider := w.addUser(t, "omar", "", "x", domain.RoleEmployee, &w.globex.ID)
	boss := w.addUser(t, "bea", "", "x", domain.RoleManager, &w.acme.ID)

	cases := []struct {
		name    string
		actor   *domain.Principal
		input   EmployeeCreateInput
		code    string
		message string
	}{
		{"missing designation", w.asAdmin, EmployeeCreateInput{UserID: outsider.ID, DepartmentID: w.globexSales.ID}, "VALIDATION_FAILED", "designation is required"},
		{"unknown department", w.asAdmin, EmployeeCreateInput{UserID: outsider.ID, DepartmentID: "00000000-0000-0000-0000-000000000000", Designation: "x"}, "VALIDATION_FAILED", "Department not found."},
		{"department of another tenant", w.asManager, EmployeeCreateInput{UserID: outsider.ID, DepartmentID: w.globexSales.ID, Designation: "x"}, "FORBIDDEN", ""},
		{"employees cannot onboard", w.asWorker, EmployeeCreateInput{UserID: outsider.ID, DepartmentID: w.acmeDev.ID, Designation: "x"}, "FORBIDDEN", ""},
		{"malformed user id", w.asAdmin, EmployeeCreateInput{UserID: "walt", DepartmentID: w.acmeDev.ID, Designation: "x"}, "VALIDATION_FAILED", "user_id must be a valid id"},
		{"malformed department id", w.asAdmin, EmployeeCreateInput{UserID: outsider.ID, DepartmentID: "dev", Designation: "x"}, "VALIDATION_FAILED", "department_id must be a valid id"},
		{"unknown user", w.asAdmin, EmployeeCreateInput{UserID: "00000000-0000-0000-0000-000000000000", DepartmentID: w.acmeDev.ID, Designation: "x"}, "VALIDATION_FAILED", "User not found."},
		{"non employee role", w.asAdmin, EmployeeCreateInput{UserID: boss.ID, DepartmentID: w.acmeDev.ID, Designation: "x"}, "VALIDATION_FAILED", "User must have an 'employee' role."},
		{"user of another company", w.asAdmin, EmployeeCreateInput{UserID: outsider.ID, DepartmentID: w.acmeDev.ID, Designation: "x"}, "VALIDATION_FAILED", "User belongs to a different company."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.actor, tc.input)
			de := assertCode(t, err, tc.code)
			if tc.message != "" {
				assert.Equal(t, tc.message, de.Message)
			}
		})
	}
}

func TestEmployeeUpdate_NeverTouchesStatus(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, w.asAdmin, w.workerEmployee.ID, "interview_scheduled")
	require.NoError(t, err)

	designation := "Staff Engineer"
	updated, err := svc.Update(ctx, w.asWorker, w.workerEmployee.ID, EmployeeUpdateInput{Designation: &designation})
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Designation)
	assert.Equal(t, domain.StatusInterviewScheduled, updated.Status)

	_, err = svc.Update(ctx, w.asWorker, w.workerEmployee.ID, EmployeeUpdateInput{DepartmentID: &w.globexSales.ID})
	assertCode(t, err, "FORBIDDEN")
}

func TestEmployeeUpdate_AdminMovesAcrossCompanies(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	moved, err := svc.Update(ctx, w.asAdmin, w.workerEmployee.ID, EmployeeUpdateInput{DepartmentID: &w.globexSales.ID})
	require.NoError(t, err)
	assert.Equal(t, w.globex.ID, moved.CompanyID)
	assert.Equal(t, w.globexSales.ID, moved.DepartmentID)

	user, err := w.store.Users().GetByUsername(ctx, "walt")
	require.NoError(t, err)
	assert.Equal(t, w.globex.ID, *user.CompanyID)
	assert.NotEmpty(t, user.PasswordHash)

	// the manager lost sight of the moved employee
	_, err = svc.Get(ctx, w.asManager, w.workerEmployee.ID)
	assertCode(t, err, "NOT_FOUND")
}

func TestEmployeeVisibility(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	all, err := svc.List(ctx, w.asAdmin, EmployeeListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, w.asManager, EmployeeListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, w.acme.ID, mine[0].CompanyID)

	self, err := svc.List(ctx, w.asWorker, EmployeeListFilter{})
	require.NoError(t, err)
	require.Len(t, self, 1)
	assert.Equal(t, w.worker.ID, self[0].UserID)

	hired, err := svc.List(ctx, w.asAdmin, EmployeeListFilter{Status: "hired"})
	require.NoError(t, err)
	assert.Empty(t, hired)

	_, err = svc.List(ctx, w.asAdmin, EmployeeListFilter{DepartmentID: "nope"})
	assertCode(t, err, "VALIDATION_FAILED")
	_, err = svc.List(ctx, w.asAdmin, EmployeeListFilter{Status: "promoted"})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Get(ctx, w.asWorker, w.rivalEmployee.ID)
	assertCode(t, err, "NOT_FOUND")
}

func TestEmployeeDelete(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	assertCode(t, svc.Delete(ctx, w.asWorker, w.workerEmployee.ID), "FORBIDDEN")
	assertCode(t, svc.Delete(ctx, w.asManager, w.rivalEmployee.ID), "NOT_FOUND")
	require.NoError(t, svc.Delete(ctx, w.asManager, w.workerEmployee.ID))

	// the account survives its employee profile
	_, err := w.store.Users().GetByUsername(ctx, "walt")
	assert.NoError(t, err)
}

func errOnly[T any](_ T, err error) error {
	return err
}

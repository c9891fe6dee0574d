package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/visibility"
)

type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

type countingReports struct {
	repository.EmployeeRepository
	builds atomic.Int32
}

func (c *countingReports) Report(ctx context.Context, scope visibility.Scope) ([]domain.EmployeeReportRow, error) {
	c.builds.Add(1)
	return c.EmployeeRepository.Report(ctx, scope)
}

func TestReportService_ScopedRows(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	svc := NewReportService(w.deps, nil)
	ctx := context.Background()

	rows, err := svc.EmployeeReport(ctx, w.asAdmin)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].CompanyName)
	assert.Equal(t, "Globex", rows[1].CompanyName)

	rows, err = svc.EmployeeReport(ctx, w.asManager)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.EmployeeReportRow{
		ID:             w.workerEmployee.ID,
		Username:       "walt",
		CompanyName:    "Acme",
		DepartmentName: "Development",
		Designation:    "Engineer",
		Status:         domain.StatusApplicationReceived,
	}, rows[0])

	rows, err = svc.EmployeeReport(ctx, w.asWorker)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "walt", rows[0].Username)

	rows, err = svc.EmployeeReport(ctx, &domain.Principal{UserID: "x", Role: domain.RoleManager})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestReportService_CachesUntilDataChanges(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	counting := &countingReports{EmployeeRepository: w.store.Employees()}
	w.deps.Employees = counting
	client := newFakeRedis()
	cache := &RedisReportCache{client: client, ttl: time.Minute}

	reports := NewReportService(w.deps, cache)
	reports.Register(w.dispatcher)
	employees := NewEmployeeService(w.deps)
	ctx := context.Background()

	first, err := reports.EmployeeReport(ctx, w.asManager)
	require.NoError(t, err)
	second, err := reports.EmployeeReport(ctx, w.asManager)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), counting.builds.Load())
	assert.Equal(t, time.Minute, client.ttls["employees:report:0:company:"+w.acme.ID])

	_, err = reports.EmployeeReport(ctx, w.asAdmin)
	require.NoError(t, err)
	assert.Equal(t, int32(2), counting.builds.Load())

	_, err = employees.ChangeStatus(ctx, w.asManager, w.workerEmployee.ID, "interview_scheduled")
	require.NoError(t, err)

	fresh, err := reports.EmployeeReport(ctx, w.asManager)
	require.NoError(t, err)
	assert.Equal(t, int32(3), counting.builds.Load())
	require.Len(t, fresh, 1)
	assert.Equal(t, domain.StatusInterviewScheduled, fresh[0].Status)
}

func TestReportService_CacheOutageFallsBackToStore(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	client := newFakeRedis()
	client.failGet = true
	svc := NewReportService(w.deps, &RedisReportCache{client: client, ttl: time.Minute})

	rows, err := svc.EmployeeReport(context.Background(), w.asAdmin)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Len(t, w.logs.FilterMessage("report cache unavailable").All(), 1)
}

func TestNotificationService_HiringDecisions(t *testing.T) {
	t.Parallel()
	w := newWorld(t)
	NewNotificationService(w.dispatcher, w.deps.Logger).RegisterHandlers()
	svc := NewEmployeeService(w.deps)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, w.asAdmin, w.workerEmployee.ID, "not_accepted")
	require.NoError(t, err)

	decisions := w.logs.FilterMessage("HiringDecision").All()
	require.Len(t, decisions, 1)
	assert.Equal(t, "not_accepted", decisions[0].ContextMap()["new_status"])
	assert.Equal(t, w.acme.ID, decisions[0].ContextMap()["company_id"])

	require.NoError(t, w.dispatcher.Publish(ctx, events.NewEvent(events.EventEmployeeStatusChanged, "e1", events.Actor{}, "garbled")))
	assert.Len(t, w.logs.FilterMessage("unexpected status change payload").All(), 1)
}

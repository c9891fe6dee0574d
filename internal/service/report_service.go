package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/visibility"
)

// ReportCache stores report snapshots. Key resolves the current cache key for
// a scope; rows built after Key was called land under that key, so an
// invalidation racing a build never resurrects stale data.
type ReportCache interface {
	Key(ctx context.Context, scope visibility.Scope) (string, error)
	Get(ctx context.Context, key string) ([]domain.EmployeeReportRow, bool, error)
	Set(ctx context.Context, key string, rows []domain.EmployeeReportRow) error
	Invalidate(ctx context.Context) error
}

type reportCacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

const (
	reportKeyPrefix  = "employees:report"
	reportVersionKey = reportKeyPrefix + ":version"
)

// RedisReportCache keys snapshots by a generation counter. Invalidation bumps
// the counter so every scope misses at once and old entries age out by TTL.
type RedisReportCache struct {
	client reportCacheClient
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

func (c *RedisReportCache) Get(ctx context.Context, key string) ([]domain.EmployeeReportRow, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("report cache get: %w", err)
	}
	var rows []domain.EmployeeReportRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("report cache decode: %w", err)
	}
	return rows, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, rows []domain.EmployeeReportRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("report cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("report cache set: %w", err)
	}
	return nil
}

func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, reportVersionKey).Err(); err != nil {
		return fmt.Errorf("report cache invalidate: %w", err)
	}
	return nil
}

func (c *RedisReportCache) Key(ctx context.Context, scope visibility.Scope) (string, error) {
	version, err := c.client.Get(ctx, reportVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		version = 0
	} else if err != nil {
		return "", fmt.Errorf("report cache version: %w", err)
	}
	return reportKeyPrefix + ":" + strconv.FormatInt(version, 10) + ":" + scope.Key(), nil
}

// ReportService builds the flattened employee report for the caller's scope.
type ReportService struct {
	deps  Dependencies
	cache ReportCache
	group singleflight.Group
}

// NewReportService constructs the service. cache may be nil.
func NewReportService(deps Dependencies, cache ReportCache) *ReportService {
	return &ReportService{deps: deps, cache: cache}
}

// EmployeeReport returns one row per visible employee. Concurrent requests
// for the same scope share a single build.
func (s *ReportService) EmployeeReport(ctx context.Context, p *domain.Principal) ([]domain.EmployeeReportRow, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	scope := visibility.For(p, visibility.EntityEmployee)
	if scope.Empty() {
		return []domain.EmployeeReportRow{}, nil
	}
	logger := observability.LoggerFromContext(ctx, s.deps.logger())

	cache, key := s.cache, scope.Key()
	if cache != nil {
		cacheKey, err := cache.Key(ctx, scope)
		if err != nil {
			logger.Warn("report cache unavailable", zap.Error(err))
			cache = nil
		} else {
			key = cacheKey
			rows, ok, err := cache.Get(ctx, key)
			if err != nil {
				logger.Warn("report cache read failed", zap.Error(err))
			} else if ok {
				return rows, nil
			}
		}
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		rows, err := s.deps.Employees.Report(ctx, scope)
		if err != nil {
			return nil, err
		}
		if cache != nil {
			if err := cache.Set(ctx, key, rows); err != nil {
				logger.Warn("report cache write failed", zap.Error(err))
			}
		}
		return rows, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "employee report")
	}
	return result.([]domain.EmployeeReportRow), nil
}

// Register drops cached reports whenever data they project changes.
func (s *ReportService) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil || s.cache == nil {
		return
	}
	for _, eventType := range events.AllEventTypes() {
		dispatcher.Subscribe(eventType, s.invalidate)
	}
}

func (s *ReportService) invalidate(ctx context.Context, _ events.Event) error {
	return s.cache.Invalidate(ctx)
}

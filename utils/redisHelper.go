package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/sirupsen/logrus"
)

var ErrorAccountBusy = fmt.Errorf("%w: account is being updated by another request", ErrorConflict)

/* account lock */

// AccountLocker serializes writers of one account across processes.
type AccountLocker interface {
	// Lock returns a release func; it fails with ErrorAccountBusy when the lock is held elsewhere.
	Lock(ctx context.Context, tenantId string, accountId int) (func(), error)
}

func accountLockKey(tenantId string, accountId int) string {
	return fmt.Sprintf("account:%s:%d", tenantId, accountId)
}

type RedisAccountLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	logger *logrus.Logger
}

func NewRedisAccountLocker(client *redislock.Client, ttl time.Duration, logger *logrus.Logger) *RedisAccountLocker {
	return &RedisAccountLocker{
		client: client,
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
		logger: logger,
	}
}

func (l *RedisAccountLocker) Lock(ctx context.Context, tenantId string, accountId int) (func(), error) {
	key := accountLockKey(tenantId, accountId)
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(l.logger, "Utils", "AccountLock", "could not obtain lock", key, err)
		return nil, ErrorAccountBusy
	} else if err != nil {
		config.LogError(l.logger, "Utils", "AccountLock", "error obtaining lock", key, err)
		return nil, err
	}
	return func() {
		// release with a fresh context, the request may already be cancelled
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(l.logger, "Utils", "AccountLock", "error releasing lock", key, err)
		}
	}, nil
}

// LocalAccountLocker is the single-process fallback when redis is not configured.
type LocalAccountLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalAccountLocker() *LocalAccountLocker {
	return &LocalAccountLocker{locks: map[string]*sync.Mutex{}}
}

func (l *LocalAccountLocker) Lock(ctx context.Context, tenantId string, accountId int) (func(), error) {
	key := accountLockKey(tenantId, accountId)
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

/* report cache */

// ReportCache keeps tenant-wide computed reports until a write touches the tenant.
// Invalidate bumps the tenant generation; reports are stored and looked up under
// the generation read before they were computed.
type ReportCache interface {
	Generation(ctx context.Context, tenantId string) (int64, error)
	Get(ctx context.Context, tenantId string, key string, dest any) (bool, error)
	Set(ctx context.Context, tenantId string, key string, report any) error
	Invalidate(ctx context.Context, tenantId string) error
}

// CachedReport serves key from the current generation of the tenant's cache or
// computes and stores it. A report computed across an Invalidate lands under a
// retired generation and is never served. Cache failures fall back to compute.
func CachedReport[T any](ctx context.Context, cache ReportCache, logger *logrus.Logger, tenantId string, key string, compute func() (T, error)) (T, error) {
	generation, err := cache.Generation(ctx, tenantId)
	if err != nil {
		logger.WithField("tenant", tenantId).Warn("report cache unavailable: " + err.Error())
		return compute()
	}
	versioned := fmt.Sprintf("%s@%d", key, generation)

	var cached T
	if ok, err := cache.Get(ctx, tenantId, versioned, &cached); err == nil && ok {
		return cached, nil
	}
	report, err := compute()
	if err != nil {
		return report, err
	}
	if err := cache.Set(ctx, tenantId, versioned, report); err != nil {
		logger.WithField("tenant", tenantId).Warn("report not cached: " + err.Error())
	}
	return report, nil
}

func reportKey(tenantId string, key string) string {
	return "Report:" + tenantId + ":" + key
}

func reportSetKey(tenantId string) string {
	return "ReportKeys:" + tenantId
}

func reportGenerationKey(tenantId string) string {
	return "ReportGen:" + tenantId
}

// RedisReportCache stores reports through the config redis helpers and tracks
// every key of a tenant in a set for invalidation.
type RedisReportCache struct {
	ttl time.Duration
}

func NewRedisReportCache(ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{ttl: ttl}
}

func (c *RedisReportCache) Generation(ctx context.Context, tenantId string) (int64, error) {
	return config.GetRedisInt(ctx, reportGenerationKey(tenantId))
}

func (c *RedisReportCache) Get(ctx context.Context, tenantId string, key string, dest any) (bool, error) {
	return config.GetRedisObject(ctx, reportKey(tenantId, key), dest)
}

func (c *RedisReportCache) Set(ctx context.Context, tenantId string, key string, report any) error {
	fullKey := reportKey(tenantId, key)
	if err := config.SetRedisObject(ctx, fullKey, report, c.ttl); err != nil {
		return err
	}
	return config.AddRedisSet(ctx, reportSetKey(tenantId), fullKey)
}

// Invalidate retires the generation first, then frees the stored reports.
func (c *RedisReportCache) Invalidate(ctx context.Context, tenantId string) error {
	if _, err := config.IncrRedisKey(ctx, reportGenerationKey(tenantId)); err != nil {
		return err
	}
	setKey := reportSetKey(tenantId)
	keys, err := config.GetRedisSetMembers(ctx, setKey)
	if err != nil {
		return err
	}
	return config.RemoveRedisKey(ctx, append(keys, setKey)...)
}

type memoryReport struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryReportCache is the single-process report cache used when redis is not
// configured. Reports round-trip through JSON like they do through redis.
type MemoryReportCache struct {
	ttl         time.Duration
	mu          sync.Mutex
	generations map[string]int64
	reports     map[string]memoryReport
}

func NewMemoryReportCache(ttl time.Duration) *MemoryReportCache {
	return &MemoryReportCache{ttl: ttl, generations: map[string]int64{}, reports: map[string]memoryReport{}}
}

func (c *MemoryReportCache) Generation(ctx context.Context, tenantId string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[tenantId], nil
}

func (c *MemoryReportCache) Get(ctx context.Context, tenantId string, key string, dest any) (bool, error) {
	c.mu.Lock()
	entry, ok := c.reports[reportKey(tenantId, key)]
	c.mu.Unlock()
	if !ok || (c.ttl > 0 && time.Now().After(entry.expiresAt)) {
		return false, nil
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryReportCache) Set(ctx context.Context, tenantId string, key string, report any) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[reportKey(tenantId, key)] = memoryReport{raw: raw, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *MemoryReportCache) Invalidate(ctx context.Context, tenantId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[tenantId]++
	prefix := reportKey(tenantId, "")
	for key := range c.reports {
		if strings.HasPrefix(key, prefix) {
			delete(c.reports, key)
		}
	}
	return nil
}

// Len counts the stored reports of every tenant.
func (c *MemoryReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}

type NoopReportCache struct{}

func (NoopReportCache) Generation(ctx context.Context, tenantId string) (int64, error) {
	return 0, nil
}

func (NoopReportCache) Get(ctx context.Context, tenantId string, key string, dest any) (bool, error) {
	return false, nil
}

func (NoopReportCache) Set(ctx context.Context, tenantId string, key string, report any) error {
	return nil
}

func (NoopReportCache) Invalidate(ctx context.Context, tenantId string) error {
	return nil
}

// Package ledger turns the append-only posting stream of an account into
// balances, statements, aging buckets and reconciliations.
//
// The engine keeps no state between calls. Every report is recomputed from
// the postings the store returns at read time; the only cached value is the
// account balance, which is refreshed explicitly through Recompute or
// AppendWithBalance.
package ledger

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const moduleName = "Ledger"

type Engine struct {
	store  store.Store
	locker utils.AccountLocker
	cache  utils.ReportCache
	logger *logrus.Logger
	tracer trace.Tracer
	now    func() time.Time
}

type Option func(*Engine)

func WithLocker(locker utils.AccountLocker) Option {
	return func(e *Engine) {
		if locker != nil {
			e.locker = locker
		}
	}
}

func WithReportCache(cache utils.ReportCache) Option {
	return func(e *Engine) {
		if cache != nil {
			e.cache = cache
		}
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now, used for "now" in aging and for stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		locker: utils.NewLocalAccountLocker(),
		cache:  utils.NoopReportCache{},
		logger: config.GetLogger(),
		tracer: otel.Tracer("ledger-engine"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) startSpan(ctx context.Context, name string, tenantId string, accountId int) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("tenant.id", tenantId)}
	if accountId > 0 {
		attrs = append(attrs, attribute.Int("account.id", accountId))
	}
	return e.tracer.Start(ctx, "ledger."+name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span and logs unexpected (non domain) failures.
func (e *Engine) endSpan(span trace.Span, funcName string, data any, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !utils.IsDomainError(err) {
			config.LogError(e.logger, moduleName, funcName, "store failure", data, err)
		}
	}
	span.End()
}

// withAccountLock holds the distributed account lock and runs fn in one store unit.
func (e *Engine) withAccountLock(ctx context.Context, tenantId string, accountId int, fn func(tx store.Store) error) error {
	release, err := e.locker.Lock(ctx, tenantId, accountId)
	if err != nil {
		return err
	}
	defer release()
	return e.store.WithinAccount(ctx, tenantId, accountId, fn)
}

func (e *Engine) invalidateReports(ctx context.Context, tenantId string) {
	if err := e.cache.Invalidate(ctx, tenantId); err != nil {
		config.LogError(e.logger, moduleName, "InvalidateReports", "report cache invalidation", tenantId, err)
	}
}

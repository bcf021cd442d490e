package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/observability"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/orders"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/cache"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/sequence"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

// Redis sequence keys outlive their longest period (a month) by a margin.
const redisSequenceTTL = 45 * 24 * time.Hour

// Infra holds the connections shared by the binaries.
type Infra struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Connect opens PostgreSQL and Redis.
func Connect(ctx context.Context, cfg *Config) (*Infra, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return nil, err
	}
	rdb, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Infra{Pool: pool, Redis: rdb}, nil
}

// Close releases both connections.
func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}

// NewAllocator builds the document number allocator on the configured counter.
func NewAllocator(cfg *Config, conn db.DBTX, rdb redis.UniversalClient) (*sequence.Allocator, error) {
	var counter sequence.Counter
	switch cfg.SequenceBackend {
	case SequenceRedis:
		if rdb == nil {
			return nil, errors.New("app: redis sequence backend needs a redis client")
		}
		counter = sequence.NewRedisCounter(rdb, redisSequenceTTL)
	case SequencePostgres, "":
		if conn == nil {
			return nil, errors.New("app: postgres sequence backend needs a database")
		}
		counter = sequence.NewPGCounter(conn)
	default:
		return nil, fmt.Errorf("app: unknown sequence backend %q", cfg.SequenceBackend)
	}
	return sequence.NewAllocator(counter, sequence.WithLocation(cfg.Location())), nil
}

// NewFactory builds the document factory with configured terms.
func NewFactory(cfg *Config, numbers documents.NumberAllocator) *documents.Factory {
	return documents.NewFactory(numbers,
		documents.WithQuotationValidity(cfg.QuotationValidity),
		documents.WithDueDays(cfg.InvoiceDueDays),
	)
}

// OrderServiceParams collects what NewOrderService wires together.
type OrderServiceParams struct {
	Config   *Config
	Infra    *Infra
	Notifier notify.Notifier
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// NewOrderService wires the order state machine onto PostgreSQL and Redis.
func NewOrderService(p OrderServiceParams) (*orders.Service, error) {
	if p.Config == nil || p.Infra == nil || p.Infra.Pool == nil {
		return nil, errors.New("app: order service needs config and database")
	}
	var rdb redis.UniversalClient
	if p.Infra.Redis != nil {
		rdb = p.Infra.Redis
	}
	allocator, err := NewAllocator(p.Config, p.Infra.Pool, rdb)
	if err != nil {
		return nil, err
	}
	money, err := timeline.NewMoneyFormatter(p.Config.Currency)
	if err != nil {
		return nil, err
	}
	deps := orders.Deps{
		Repo:              orders.NewRepository(p.Infra.Pool),
		Numbers:           allocator,
		Factory:           NewFactory(p.Config, allocator),
		Ledger:            ledger.NewService(allocator),
		Timeline:          timeline.NewRecorder(timeline.NewRepository(p.Infra.Pool), p.Logger, p.Config.SideEffectTimeout),
		Notifier:          p.Notifier,
		Idempotency:       shared.NewIdempotencyStore(p.Infra.Pool),
		Money:             money,
		Logger:            p.Logger,
		SideEffectTimeout: p.Config.SideEffectTimeout,
	}
	if rdb != nil {
		deps.Locker = cache.NewLocker(rdb, p.Config.LockTTL, 2*time.Second)
	}
	if p.Metrics != nil {
		deps.Metrics = p.Metrics
	}
	return orders.NewService(deps), nil
}

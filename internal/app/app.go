package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"offerwatch/internal/alerting"
	"offerwatch/internal/cache"
	"offerwatch/internal/config"
	"offerwatch/internal/refresh"
	"offerwatch/internal/scheduler"
	"offerwatch/internal/storage"
	"offerwatch/internal/vendor"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Breakers *vendor.BreakerManager
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	breakers := vendor.NewBreakerManager(vendor.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Breaker.Cooldown,
	}, logger)
	return &App{
		Config:   cfg,
		Logger:   logger.With().Str("component", "app").Logger(),
		Breakers: breakers,
	}
}

func (a *App) newRegistry() (*vendor.Registry, error) {
	specs := make([]vendor.Spec, 0, len(a.Config.Vendors))
	for _, v := range a.Config.Vendors {
		specs = append(specs, vendor.Spec{ID: v.ID, Format: v.Format, BaseURL: v.BaseURL})
	}

	policy := vendor.RetryPolicy{
		MaxRetries:     a.Config.VendorHTTP.Retries,
		AttemptTimeout: a.Config.VendorHTTP.AttemptTimeout,
		Delay:          a.Config.VendorHTTP.RetryDelay,
		Exponential:    a.Config.VendorHTTP.ExponentialBackoff,
	}
	return vendor.NewRegistry(specs, policy, a.Breakers, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) openRedis() redis.UniversalClient {
	if a.Config.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:        a.Config.Redis.Addr,
		Password:    a.Config.Redis.Password,
		DB:          a.Config.Redis.DB,
		DialTimeout: a.Config.Redis.DialTimeout,
	})
}

// pipeline bundles the fully wired read/refresh stack for one invocation.
type pipeline struct {
	store       *storage.Store
	rdb         redis.UniversalClient
	aggregator  *vendor.Aggregator
	queue       *refresh.Queue
	coordinator *refresh.Coordinator
	close       func()
}

func (a *App) buildPipeline(ctx context.Context) (*pipeline, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}

	registry, err := a.newRegistry()
	if err != nil {
		if closeStore != nil {
			closeStore()
		}
		return nil, err
	}

	rdb := a.openRedis()
	if rdb == nil {
		a.Logger.Warn().Msg("redis.addr not configured; cache runs in-process, queueing disabled")
	}

	var sink vendor.AuditSink
	if store != nil {
		sink = store
	}

	aggregator := vendor.NewAggregator(registry, sink, vendor.AggregatorOptions{
		Freshness: a.Config.Aggregation.FreshnessWindow,
	}, a.Logger)

	viewCache := cache.New(rdb, a.Config.Cache.TTL, a.Logger)
	queue := refresh.NewQueue(rdb, a.Logger)

	threshold := 0.0
	if a.Config.Alerting.Enabled {
		threshold = a.Config.Alerting.ThresholdPct
	}

	coordinator := refresh.NewCoordinator(store, aggregator, viewCache, refresh.CoordinatorOptions{
		Notifier:          a.newNotifier(),
		AlertThresholdPct: threshold,
	}, a.Logger)

	closer := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		if closeStore != nil {
			closeStore()
		}
	}

	return &pipeline{
		store:       store,
		rdb:         rdb,
		aggregator:  aggregator,
		queue:       queue,
		coordinator: coordinator,
		close:       closer,
	}, nil
}

// Run executes the long-running refresh service: a queue worker plus the
// periodic scheduler that feeds it. Without a broker the scheduler falls back
// to refreshing synchronously in-process.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := a.buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.close()

	var wg sync.WaitGroup
	if p.rdb != nil {
		worker := refresh.NewWorker(p.queue, p.coordinator, refresh.WorkerOptions{
			MaxAttempts:    a.Config.Queue.MaxAttempts,
			DequeueTimeout: a.Config.Queue.DequeueTimeout,
		}, a.Logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if runErr := worker.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				a.Logger.Error().Err(runErr).Msg("refresh worker terminated with error")
			}
		}()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:        a.Config.Scheduler.Interval,
		AlignToInterval: a.Config.Scheduler.AlignToInterval,
		StartupDelay:    a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Msg("starting refresh service")
	err = sched.Run(ctx, a.tick(p))
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("refresh service terminated with error")
		return err
	}

	a.Logger.Info().Msg("refresh service stopped")
	return nil
}

// tick enqueues one refresh job per known SKU, or refreshes inline when no
// broker is available.
func (a *App) tick(p *pipeline) scheduler.TickFunc {
	return func(ctx context.Context, at time.Time) error {
		if p.rdb == nil {
			summary, err := p.coordinator.RefreshAll(ctx)
			if err != nil {
				return err
			}
			a.Logger.Info().Int("total", summary.Total).Int("failed", summary.Failed).Msg("inline bulk refresh completed")
			return nil
		}

		skus, err := p.store.ListSKUs(ctx)
		if err != nil {
			return err
		}

		enqueued := 0
		for _, sku := range skus {
			if p.queue.Enqueue(ctx, sku) {
				enqueued++
			}
		}
		a.Logger.Info().Int("skus", len(skus)).Int("enqueued", enqueued).Msg("scheduled refresh jobs")
		return nil
	}
}

// ExportOptions hold parameters for exporting vendor price history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

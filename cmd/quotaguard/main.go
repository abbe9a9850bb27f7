package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/quotaguard/internal/db/migrations"
	"github.com/dmitrymomot/quotaguard/modules/governance"
	"github.com/dmitrymomot/quotaguard/pkg/apikey"
	"github.com/dmitrymomot/quotaguard/pkg/archive"
	"github.com/dmitrymomot/quotaguard/pkg/auth"
	"github.com/dmitrymomot/quotaguard/pkg/billing"
	"github.com/dmitrymomot/quotaguard/pkg/clock"
	"github.com/dmitrymomot/quotaguard/pkg/config"
	"github.com/dmitrymomot/quotaguard/pkg/events"
	"github.com/dmitrymomot/quotaguard/pkg/httpserver"
	"github.com/dmitrymomot/quotaguard/pkg/logger"
	"github.com/dmitrymomot/quotaguard/pkg/metrics"
	"github.com/dmitrymomot/quotaguard/pkg/pg"
	"github.com/dmitrymomot/quotaguard/pkg/quota"
	"github.com/dmitrymomot/quotaguard/pkg/redis"
	"github.com/dmitrymomot/quotaguard/pkg/webhook"
)

type appConfig struct {
	Env            string `env:"APP_ENV" envDefault:"development"`
	LedgerBackend  string `env:"LEDGER_BACKEND" envDefault:"postgres"`
	PolicyFile     string `env:"QUOTA_POLICY_FILE"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	// MetricsAddr serves /metrics on its own listener; empty mounts it on the API router.
	MetricsAddr string `env:"METRICS_ADDR"`
}

func (c appConfig) Validate() error {
	switch c.LedgerBackend {
	case "postgres", "redis", "memory":
		return nil
	}
	return fmt.Errorf("LEDGER_BACKEND must be postgres, redis or memory, got %q", c.LedgerBackend)
}

type configs struct {
	app     appConfig
	http    httpserver.Config
	pg      pg.Config
	redis   redis.Config
	auth    auth.Config
	billing billing.Config
	webhook webhook.Config
	archive archive.Config
}

func loadConfigs() (configs, error) {
	var c configs
	err := errors.Join(
		config.Load(&c.app),
		config.Load(&c.http),
		config.Load(&c.pg),
		config.Load(&c.auth),
		config.Load(&c.billing),
		config.Load(&c.webhook),
		config.Load(&c.archive),
	)
	if c.app.LedgerBackend == "redis" {
		err = errors.Join(err, config.Load(&c.redis))
	}
	return c, err
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("quotaguard stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfigs()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.app.Env, "quotaguard"),
		logger.WithContextExtractors(logger.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, cfg.pg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, cfg.pg, log); err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}

	var ledgerStore events.Store
	switch cfg.app.LedgerBackend {
	case "redis":
		client, err := redis.Connect(ctx, cfg.redis)
		if err != nil {
			return err
		}
		defer client.Close()
		ledgerStore = events.NewRedisStore(client)
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	case "memory":
		log.Warn("usage ledger kept in memory, counts reset on restart")
		ledgerStore = events.NewMemoryStore()
	default:
		ledgerStore = events.NewPostgresStore(pool)
	}

	policies := quota.Policies{}
	if cfg.app.PolicyFile != "" {
		if policies, err = quota.LoadPolicyFile(cfg.app.PolicyFile); err != nil {
			return err
		}
	}

	var collector *metrics.Collector
	if cfg.app.MetricsEnabled {
		collector = metrics.New()
	}

	clk := clock.Real{}
	ledger := events.New(ledgerStore, events.WithClock(clk))
	billingStore := billing.NewPostgresStore(pool)

	keys := apikey.NewService(apikey.NewPostgresStore(pool), cfg.auth.APIKeySecret, apikey.WithClock(clk))
	sessions := auth.NewSessionAuthenticator(cfg.auth.SessionSecret, auth.WithSessionTTL(cfg.auth.SessionTTL))

	gateway, err := billing.NewGateway(cfg.billing)
	if err != nil {
		return err
	}

	reconciler, err := newReconciler(ctx, cfg, billingStore, collector, log)
	if err != nil {
		return err
	}

	api, err := governance.Router(governance.RouterOptions{
		Ledger:    ledger,
		Billing:   billingStore,
		Canceller: billing.NewCanceller(billingStore, gateway, log),
		Keys:      keys,
		APIKeys:   auth.NewAPIKeyAuthenticator(keys),
		Sessions:  sessions,
		Refresher: governance.RefresherFunc(func(ctx context.Context, userID uuid.UUID) error {
			log.InfoContext(ctx, "data refresh requested", logger.UserID(userID))
			return nil
		}),
		Webhook:  reconciler.Handler(),
		Policies: policies,
		Logger:   log,
		Metrics:  collector,
		Clock:    clk,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, checks...))
	r.Mount("/api", api)

	g, ctx := errgroup.WithContext(ctx)

	if collector != nil {
		if cfg.app.MetricsAddr == "" {
			r.Method(http.MethodGet, "/metrics", collector.Handler())
		} else {
			mr := chi.NewRouter()
			mr.Method(http.MethodGet, "/metrics", collector.Handler())
			msrv := httpserver.New(httpserver.WithAddr(cfg.app.MetricsAddr), httpserver.WithLogger(log.With(logger.Component("metrics"))))
			g.Go(func() error { return msrv.Run(ctx, mr) })
		}
	}

	srv := httpserver.NewFromConfig(cfg.http, httpserver.WithLogger(log))
	g.Go(func() error { return srv.Run(ctx, r) })
	return g.Wait()
}

func newReconciler(ctx context.Context, cfg configs, store billing.Store, m *metrics.Collector, log *slog.Logger) (*webhook.Reconciler, error) {
	provider, err := webhook.NewProvider(cfg.webhook)
	if err != nil {
		return nil, err
	}

	resolver := webhook.NewLinkageResolver(store, cfg.webhook.LinkAttempts,
		webhook.FixedBackoff{Interval: cfg.webhook.LinkDelay},
		webhook.WithLinkageLogger(log),
		webhook.WithLinkageMetrics(m),
	)

	opts := []webhook.Option{
		webhook.WithLogger(log.With(logger.Component("webhook"))),
		webhook.WithMetrics(m),
		webhook.WithHandlerTimeout(cfg.webhook.HandlerTimeout),
		webhook.WithMaxBodyBytes(cfg.webhook.MaxBodyBytes),
	}
	if cfg.archive.Enabled {
		a, err := archive.NewS3Archiver(ctx, cfg.archive)
		if err != nil {
			return nil, err
		}
		opts = append(opts, webhook.WithArchiver(a))
		log.Info("webhook archive enabled", slog.String("bucket", cfg.archive.Bucket))
	}

	return webhook.NewReconciler(provider, webhook.DefaultRegistry(store, resolver, clock.Real{}, log), opts...), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/config"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/email"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/file"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/httpserver"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/mongo"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/pg"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/redis"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/delivery"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/errorstats"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/templates"
)

var errInvalidConfig = errors.New("invalid configuration")

// app holds the components shared by every run mode.
type app struct {
	cfg      appConfig
	log      *slog.Logger
	registry *prometheus.Registry
	store    store.Store
	sink     *errorstats.Sink
	rollup   *errorstats.RedisRollup
	tpl      *templates.Resolver
	service  *delivery.Service
	checks   []httpserver.Check
	closers  []func(context.Context) error
}

func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := a.openStore(ctx); err != nil {
		return nil, a.fail(ctx, err)
	}
	tpl, err := a.openTemplates(ctx)
	if err != nil {
		return nil, a.fail(ctx, err)
	}
	a.tpl = tpl
	sender, err := a.openSender()
	if err != nil {
		return nil, a.fail(ctx, err)
	}
	if err := a.openRollup(ctx); err != nil {
		return nil, a.fail(ctx, err)
	}

	var rollups []errorstats.StatisticSink
	if a.rollup != nil {
		rollups = append(rollups, a.rollup)
	}
	a.sink = errorstats.NewSink(a.store, log, rollups...)

	a.service = delivery.NewService(a.store, tpl, sender,
		delivery.WithLogger(log),
		delivery.WithErrorSink(a.sink),
		delivery.WithMetrics(a.registry),
		delivery.WithBulkWaves(cfg.BulkWaveSize, cfg.BulkWavePause),
	)
	return a, nil
}

func (a *app) fail(ctx context.Context, err error) error {
	return errors.Join(err, a.close(ctx))
}

// close releases connections in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case "postgres":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		if err := pg.Migrate(ctx, pool, store.Migrations, store.MigrationsDir, cfg, a.log.With(logger.Component("migrations"))); err != nil {
			return err
		}
		a.store = store.NewPostgresStore(pool)
		a.checks = append(a.checks, httpserver.Check{Name: "postgres", Ping: pg.Healthcheck(pool)})

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		ms := store.NewMongoStore(client.Database(cfg.Database),
			store.WithCollections(a.cfg.NotificationColl, a.cfg.ErrorColl, a.cfg.ErrorStatsColl),
		)
		if err := ms.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.store = ms
		a.checks = append(a.checks, httpserver.Check{Name: "mongo", Ping: mongo.Healthcheck(client)})

	default:
		a.log.WarnContext(ctx, "using in-memory store, records are lost on restart")
		a.store = store.NewMemoryStore()
	}
	return nil
}

func (a *app) openTemplates(ctx context.Context) (*templates.Resolver, error) {
	var storage file.Reader
	switch a.cfg.TemplateSource {
	case "local":
		local, err := file.NewLocalStorage(a.cfg.TemplateDir)
		if err != nil {
			return nil, err
		}
		storage = local
	default:
		var cfg file.S3Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		s3, err := file.NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		storage = s3
		a.checks = append(a.checks, httpserver.Check{Name: "templates", Ping: s3.Healthcheck})
	}

	resolver := templates.NewResolver(storage,
		templates.WithTTL(a.cfg.TemplateCacheTTL),
		templates.WithLogger(a.log),
	)
	if a.cfg.TemplateWarmup {
		if err := resolver.Warm(ctx); err != nil {
			a.log.WarnContext(ctx, "template warmup incomplete", logger.Error(err))
		}
	}
	return resolver, nil
}

func (a *app) openSender() (email.EmailSender, error) {
	var cfg email.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if a.cfg.MailDriver == "dev" {
		return email.NewDevSender(cfg.DevOutputDir), nil
	}
	sender, err := email.NewPostmarkClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("mail transport: %w", err)
	}
	return sender, nil
}

func (a *app) openRollup(ctx context.Context) error {
	if !a.cfg.RedisEnabled {
		return nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.rollup = errorstats.NewRedisRollup(client,
		errorstats.WithPrefix(a.cfg.RollupPrefix),
		errorstats.WithRetention(a.cfg.RollupRetention),
	)
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Ping: redis.Healthcheck(client)})
	return nil
}

// Command notifier runs the notification pipeline: the HTTP API, the batch
// worker consuming the pending topic and the dead-letter classifier. The
// -mode flag selects one of them or, by default, all three.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/config"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/httpserver"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/kafka"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/requestid"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/deadletter"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/ingress"
)

const closeTimeout = 10 * time.Second

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	mode := flag.String("mode", cfg.Mode, "component to run: api, worker, dlq or all")
	flag.Parse()
	cfg.Mode = *mode

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("notifier stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg appConfig, log *slog.Logger) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := a.close(closeCtx); err != nil {
			log.Error("failed to release resources", logger.Error(err))
		}
	}()

	var kcfg kafka.Config
	if err := config.Load(&kcfg); err != nil {
		return err
	}
	// One writer serves republishes, dead-lettering and the enqueue endpoint.
	writer, err := kafka.NewWriter(kcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Error("failed to close kafka writer", logger.Error(err))
		}
	}()

	adapter := ingress.NewAdapter(a.service, ingress.WithAdapterLogger(log))
	g, ctx := errgroup.WithContext(ctx)

	if cfg.runs(modeAPI) {
		var hcfg httpserver.Config
		if err := config.Load(&hcfg); err != nil {
			return err
		}
		opts := []ingress.ServerOption{
			ingress.WithLogger(log),
			ingress.WithMetrics(a.registry),
			ingress.WithReadiness(a.checks...),
			ingress.WithMaxBodyBytes(cfg.MaxBodyBytes),
			ingress.WithPublisher(kafka.NewPublisher(writer, kcfg.PendingTopic)),
		}
		if a.rollup != nil {
			opts = append(opts, ingress.WithStats(a.rollup))
		}
		api := ingress.NewServer(adapter, a.service, opts...)
		srv := httpserver.NewFromConfig(hcfg, httpserver.WithLogger(log))
		g.Go(func() error { return srv.Run(ctx, api.Routes()) })
	}

	if cfg.runs(modeWorker) {
		reader, err := kafka.NewReader(kcfg, kcfg.PendingTopic, kcfg.GroupID)
		if err != nil {
			return err
		}
		defer closeReader(log, "pending", reader.Close)
		consumer := kafka.NewConsumer(kcfg, reader, writer, adapter.KafkaHandler(),
			kafka.WithConsumerLogger(log),
			kafka.WithConsumerMetrics(a.registry, "pending"),
		)
		g.Go(func() error { return consumer.Run(ctx) })
	}

	if cfg.runs(modeDLQ) {
		reader, err := kafka.NewReader(kcfg, kcfg.DLQTopic, kcfg.DLQGroupID)
		if err != nil {
			return err
		}
		defer closeReader(log, "dead-letter", reader.Close)
		classifier := deadletter.NewClassifier(a.sink, deadletter.WithLogger(log))
		consumer := kafka.NewConsumer(kcfg, reader, writer, classifier.KafkaHandler(),
			kafka.WithConsumerLogger(log),
			kafka.WithConsumerMetrics(a.registry, "dead_letter"),
		)
		g.Go(func() error { return consumer.Run(ctx) })
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	g.Go(func() error { return clearOnSignal(ctx, hup, a.tpl, log) })

	log.InfoContext(ctx, "notifier started", slog.String("mode", cfg.Mode), slog.String("store", cfg.StoreDriver))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("notifier stopped")
	return nil
}

// clearOnSignal drops every cached template bundle whenever sig fires, so
// edited templates are picked up without a restart.
func clearOnSignal(ctx context.Context, sig <-chan os.Signal, cache interface{ Clear() }, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sig:
			cache.Clear()
			log.InfoContext(ctx, "template cache cleared")
		}
	}
}

func closeReader(log *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("failed to close kafka reader", slog.String("reader", name), logger.Error(err))
	}
}

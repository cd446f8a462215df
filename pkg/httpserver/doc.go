// Package httpserver provides a lightweight wrapper around net/http that adds
// graceful shutdown, configurable server timeouts, health-check handlers and
// structured logging via slog.
//
// The core type is Server, which augments http.Server with:
//
//   - Graceful Shutdown: Run blocks until the context is cancelled or the
//     process receives SIGINT or SIGTERM, then calls http.Server.Shutdown
//     bounded by the shutdown timeout.
//
//   - Functional Options: construction goes through New or NewFromConfig
//     together with Option helpers such as WithAddr, WithTimeouts and
//     WithLogger.
//
//   - Hooks: WithStopHook runs callbacks once the server has stopped.
//
//   - Health Checks: HealthCheckHandler serves liveness when called without
//     checks and readiness when given named Check values.
//
// # Usage
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	r.Get("/healthz", httpserver.HealthCheckHandler(log))
//	r.Get("/readyz", httpserver.HealthCheckHandler(log,
//		httpserver.Check{Name: "postgres", Ping: pg.Healthcheck(pool)},
//	))
//	err := srv.Run(ctx, r)
//
// # Errors
//
// Run wraps listen failures with ErrStart, while Shutdown wraps underlying
// shutdown errors with ErrShutdown. Use errors.Is to distinguish them.
package httpserver

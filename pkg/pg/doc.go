// Package pg connects to PostgreSQL through a pgx/v5 pool and applies goose
// migrations embedded in the binary.
//
//	pool, err := pg.Connect(ctx, cfg)
//	err = pg.Migrate(ctx, pool, migrations.FS, "sql", cfg, log)
//
// Healthcheck returns a check suitable for the readiness endpoint.
package pg

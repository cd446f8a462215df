package store

import "embed"

// Migrations holds the goose migrations for PostgresStore under MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

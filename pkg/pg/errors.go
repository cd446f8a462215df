package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrFailedToOpenDBConnection = errors.New("pg: could not open a pool")
	ErrFailedToParseDBConfig    = errors.New("pg: invalid PG_CONN_URL")
	ErrFailedToApplyMigrations  = errors.New("pg: migrations failed")
	ErrMigrationsNotProvided    = errors.New("pg: no migrations source given")
	ErrHealthcheckFailed        = errors.New("pg: ping failed")
)

// IsNotFoundError reports whether a single row query matched nothing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Package redis connects go-redis v9 clients with retry and exposes a
// readiness check. The error statistics rollup is its only consumer.
package redis

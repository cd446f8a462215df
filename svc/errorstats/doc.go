// Package errorstats rolls error statistics up into per day Redis hashes and
// fans statistics out to the store and the rollup.
//
// Each day is one hash named "<prefix>:<YYYY-MM-DD>" whose fields are
// "<errorType>|<notificationType>|<hour>" and whose values are counters.
// Hashes expire after the configured retention.
package errorstats

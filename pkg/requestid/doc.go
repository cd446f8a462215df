// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware honours a client supplied X-Request-ID header when it is short
// and limited to [a-zA-Z0-9_-]; otherwise it generates a UUID. The id is
// available through FromContext and can be injected into slog records with
// LoggerExtractor.
package requestid

package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
)

// Check is a named dependency check, e.g. pg.Healthcheck(pool).
type Check struct {
	Name string
	Ping func(context.Context) error
}

// healthResponse is the JSON body of both health endpoints.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthCheckHandler serves liveness when no checks are given and readiness
// otherwise. Every check runs with the request context; the response is 200
// "ready" only when all of them pass, 503 "not_ready" otherwise, with the
// per check outcome in the body.
func HealthCheckHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "alive"}
		code := http.StatusOK

		if len(checks) > 0 {
			resp.Status = "ready"
			resp.Checks = make(map[string]string, len(checks))
			for _, c := range checks {
				if err := c.Ping(r.Context()); err != nil {
					log.ErrorContext(r.Context(), "readiness check failed", slog.String("check", c.Name), logger.Error(err))
					resp.Checks[c.Name] = err.Error()
					resp.Status = "not_ready"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[c.Name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

package ingress

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/httpserver"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/requestid"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/delivery"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/errorstats"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

const (
	DefaultMaxBodyBytes = 1 << 20
	MaxBulkItems        = 500
)

// Service is the part of delivery.Service behind the supplementary
// endpoints.
type Service interface {
	SendBulk(ctx context.Context, envs []notification.Envelope) []delivery.BulkResult
	SendTest(ctx context.Context, addr string) (string, error)
	History(ctx context.Context, userID string, limit int) ([]notification.Record, error)
}

// Publisher enqueues a raw envelope for the batch worker, e.g. a
// kafka.Publisher on the pending topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// StatsSource reads one day of error rollups.
type StatsSource interface {
	Day(ctx context.Context, date string) ([]errorstats.Bucket, error)
}

type Server struct {
	adapter      *Adapter
	svc          Service
	publisher    Publisher
	stats        StatsSource
	checks       []httpserver.Check
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	maxBodyBytes int64
	logger       *slog.Logger
	now          func() time.Time
}

type ServerOption func(*Server)

func WithPublisher(p Publisher) ServerOption {
	return func(s *Server) {
		s.publisher = p
	}
}

func WithStats(src StatsSource) ServerOption {
	return func(s *Server) {
		s.stats = src
	}
}

// WithReadiness adds the checks served on /readyz.
func WithReadiness(checks ...httpserver.Check) ServerOption {
	return func(s *Server) {
		s.checks = append(s.checks, checks...)
	}
}

// WithMetrics registers the HTTP metrics on reg and serves reg on /metrics.
func WithMetrics(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func NewServer(adapter *Adapter, svc Service, opts ...ServerOption) *Server {
	s := &Server{
		adapter:      adapter,
		svc:          svc,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("http"))
	if s.registry != nil {
		s.requests, s.latency = newHTTPMetrics(s.registry)
	}
	return s
}

// Routes builds the chi router serving every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestid.Header},
		ExposedHeaders: []string{requestid.Header},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestSize(s.maxBodyBytes))
	if s.registry != nil {
		r.Use(s.instrument)
	}

	r.NotFound(s.wrap(func(*http.Request) Response {
		return JSON(http.StatusNotFound, ErrorBody{Error: "Not found", Timestamp: stamp(s.now())})
	}))
	r.MethodNotAllowed(s.wrap(methodNotAllowed))

	r.Post("/notifications", s.wrap(s.send))
	r.Post("/notifications/queue", s.wrap(s.enqueue))
	r.Post("/notifications/bulk", s.wrap(s.bulk))
	r.Post("/notifications/test", s.wrap(s.sendTest))
	r.Get("/users/{userID}/notifications", s.wrap(s.history))
	r.Get("/stats/errors", s.wrap(s.errorStats))

	r.Get("/healthz", httpserver.HealthCheckHandler(s.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(s.logger, s.checks...))
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	}
	return r
}

func (s *Server) wrap(h func(r *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(r).Render(w, r); err != nil {
			s.logger.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
		}
	}
}

func methodNotAllowed(r *http.Request) Response {
	allowed := http.MethodGet
	if strings.HasPrefix(r.URL.Path, "/notifications") {
		allowed = http.MethodPost
	}
	return JSON(http.StatusMethodNotAllowed, methodNotAllowedBody{Error: "Method not allowed. Use " + allowed + "."})
}

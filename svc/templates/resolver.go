package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/async"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/file"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// DefaultTTL is how long a fetched bundle is served from memory.
const DefaultTTL = 5 * time.Minute

// Artifact names inside a bundle directory.
const (
	SubjectFile = "subject.txt"
	HTMLFile    = "body.html"
	TextFile    = "body.txt"
)

// Bundle is the raw template source for one notification type.
type Bundle struct {
	Type      notification.Type
	Subject   string
	HTML      string
	Text      string
	FetchedAt time.Time
}

// Resolver fetches bundles from blob storage and caches them per type.
// It is safe for concurrent use. Two callers missing the cache at the same
// time both fetch; the later commit wins.
type Resolver struct {
	storage file.Reader
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[notification.Type]Bundle
}

type Option func(*Resolver)

func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewResolver(storage file.Reader, opts ...Option) *Resolver {
	r := &Resolver{
		storage: storage,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
		cache:   make(map[notification.Type]Bundle),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("templates"))
	return r
}

// Get returns the bundle for t, from memory when fresh.
func (r *Resolver) Get(ctx context.Context, t notification.Type) (Bundle, error) {
	path := t.TemplatePath()
	if path == "" {
		return Bundle{}, fmt.Errorf("%w: %w: %q", ErrTemplateNotFound, notification.ErrUnknownType, t)
	}

	now := r.now()
	r.mu.RLock()
	cached, ok := r.cache[t]
	r.mu.RUnlock()
	if ok && now.Sub(cached.FetchedAt) < r.ttl {
		return cached, nil
	}

	bundle, err := r.fetch(ctx, t, path)
	if err != nil {
		r.logger.WarnContext(ctx, "template fetch failed",
			logger.NotificationType(t),
			slog.Bool("stale_entry_kept", ok),
			logger.Error(err),
		)
		return Bundle{}, err
	}
	bundle.FetchedAt = now

	r.mu.Lock()
	if current, exists := r.cache[t]; !exists || !current.FetchedAt.After(bundle.FetchedAt) {
		r.cache[t] = bundle
	}
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "template cached", logger.NotificationType(t), slog.String("path", path))
	return bundle, nil
}

func (r *Resolver) fetch(ctx context.Context, t notification.Type, path string) (Bundle, error) {
	keys := []string{
		path + "/" + SubjectFile,
		path + "/" + HTMLFile,
		path + "/" + TextFile,
	}
	results := async.Map(ctx, keys, func(ctx context.Context, key string) (string, error) {
		data, err := r.storage.Read(ctx, key)
		if err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("%s: empty content", key)
		}
		return string(data), nil
	})

	var errs []error
	notFound := false
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
			notFound = notFound || errors.Is(res.Err, file.ErrFileNotFound)
		}
	}
	if len(errs) > 0 {
		kind := ErrTemplateFetch
		if notFound {
			kind = ErrTemplateNotFound
		}
		return Bundle{}, fmt.Errorf("%w: %s: %w", kind, t, errors.Join(errs...))
	}

	return Bundle{
		Type:    t,
		Subject: results[0].Value,
		HTML:    results[1].Value,
		Text:    results[2].Value,
	}, nil
}

// Invalidate drops the cached bundle for t.
func (r *Resolver) Invalidate(t notification.Type) {
	r.mu.Lock()
	delete(r.cache, t)
	r.mu.Unlock()
}

// Clear drops every cached bundle.
func (r *Resolver) Clear() {
	r.mu.Lock()
	clear(r.cache)
	r.mu.Unlock()
}

// Warm fetches the bundle of every known type, returning the joined errors
// of the types that failed.
func (r *Resolver) Warm(ctx context.Context) error {
	results := async.Map(ctx, notification.Types(), func(ctx context.Context, t notification.Type) (Bundle, error) {
		return r.Get(ctx, t)
	})
	var errs []error
	for _, res := range results {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

package ingress

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/async"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/schema"
)

// Processor delivers one validated envelope and returns its notification id.
type Processor interface {
	Process(ctx context.Context, env notification.Envelope) (string, error)
}

// Item is one queued message body.
type Item struct {
	ID         string
	Body       []byte
	RetryCount int
}

// Outcome reports how one batch item ended. Retryable is false for parse
// and validation failures, which can never succeed on redelivery.
type Outcome struct {
	Index          int                    `json:"index"`
	ItemID         string                 `json:"itemId,omitempty"`
	NotificationID string                 `json:"notificationId,omitempty"`
	Success        bool                   `json:"success"`
	Retryable      bool                   `json:"retryable"`
	ErrorType      notification.ErrorType `json:"errorType,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

type Summary struct {
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Timestamp  time.Time `json:"timestamp"`
	Results    []Outcome `json:"results"`
}

type Adapter struct {
	proc   Processor
	logger *slog.Logger
	now    func() time.Time
}

type AdapterOption func(*Adapter)

func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithAdapterClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAdapter(proc Processor, opts ...AdapterOption) *Adapter {
	a := &Adapter{proc: proc, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("ingress"))
	return a
}

// Handle validates body and delivers it. Parse and validation failures are
// returned before anything is persisted.
func (a *Adapter) Handle(ctx context.Context, body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", ErrEmptyBody
	}
	env, err := schema.ValidateEnvelope(body)
	if err != nil {
		return "", err
	}
	return a.proc.Process(ctx, env)
}

// HandleBatch handles every item concurrently and waits for all of them.
// Item failures are reported in the summary; an error is returned only for
// an empty batch or one where no item carries a body.
func (a *Adapter) HandleBatch(ctx context.Context, items []Item) (Summary, error) {
	if len(items) == 0 {
		return Summary{}, ErrEmptyBatch
	}
	empty := 0
	for _, it := range items {
		if len(bytes.TrimSpace(it.Body)) == 0 {
			empty++
		}
	}
	if empty == len(items) {
		return Summary{}, ErrMalformedBatch
	}

	results := async.Map(ctx, items, func(ctx context.Context, it Item) (string, error) {
		return a.Handle(ctx, it.Body)
	})

	sum := Summary{Processed: len(items), Results: make([]Outcome, len(items))}
	for i, r := range results {
		out := Outcome{Index: i, ItemID: items[i].ID, NotificationID: r.Value}
		if r.Err == nil {
			out.Success = true
			sum.Successful++
		} else {
			out.ErrorType, out.Retryable = Classify(r.Err)
			out.Error = r.Err.Error()
			if out.NotificationID == "" {
				out.NotificationID = notificationID(r.Err)
			}
			sum.Failed++
			a.logger.WarnContext(ctx, "batch item failed",
				logger.MessageID(items[i].ID),
				logger.RetryCount(items[i].RetryCount),
				logger.ErrorType(out.ErrorType),
				slog.Bool("retryable", out.Retryable),
				logger.Error(r.Err),
			)
		}
		sum.Results[i] = out
	}
	sum.Timestamp = a.now().UTC()

	a.logger.InfoContext(ctx, "batch processed",
		logger.BatchSize(sum.Processed),
		slog.Int("successful", sum.Successful),
		slog.Int("failed", sum.Failed),
	)
	return sum, nil
}

// Classify maps an error returned by Handle to its ErrorType and whether a
// redelivery may succeed.
func Classify(err error) (notification.ErrorType, bool) {
	switch {
	case errors.Is(err, ErrEmptyBody), errors.Is(err, schema.ErrMalformed):
		return notification.ErrorParse, false
	case errors.Is(err, schema.ErrInvalid):
		return notification.ErrorValidation, false
	}
	var de *notification.DeliveryError
	if errors.As(err, &de) {
		return de.Kind, de.Retryable()
	}
	return notification.ErrorProcessingFailed, false
}

func notificationID(err error) string {
	var de *notification.DeliveryError
	if errors.As(err, &de) {
		return de.NotificationID
	}
	return ""
}

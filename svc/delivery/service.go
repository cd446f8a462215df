package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/email"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/statemachine"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/templates"
)

// TemplateSource returns the bundle for a notification type.
type TemplateSource interface {
	Get(ctx context.Context, t notification.Type) (templates.Bundle, error)
}

// invalidator is implemented by template sources that cache bundles.
type invalidator interface {
	Invalidate(t notification.Type)
}

type Service struct {
	store     store.Store
	errors    store.ErrorSink
	templates TemplateSource
	renderer  templates.Renderer
	sender    email.EmailSender
	lifecycle *statemachine.Definition[notification.Status, event]
	metrics   *metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	waveSize  int
	wavePause time.Duration
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithErrorSink routes error records and statistics of failed deliveries to
// sink instead of the record store.
func WithErrorSink(sink store.ErrorSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.errors = sink
		}
	}
}

func WithRenderer(r templates.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithMetrics registers the delivery collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Service) {
		s.metrics = newMetrics(reg)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid.NewString for orchestration ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithBulkWaves sets the bulk send wave size and the pause between waves.
func WithBulkWaves(size int, pause time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.waveSize = size
		}
		if pause >= 0 {
			s.wavePause = pause
		}
	}
}

func NewService(st store.Store, tpl TemplateSource, sender email.EmailSender, opts ...Option) *Service {
	s := &Service{
		store:     st,
		errors:    st,
		templates: tpl,
		renderer:  templates.PlaceholderRenderer{},
		sender:    sender,
		lifecycle: newLifecycle(st),
		metrics:   newMetrics(nil),
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
		waveSize:  DefaultWaveSize,
		wavePause: DefaultWavePause,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("delivery"))
	return s
}

// attempt is the state of one Process call.
type attempt struct {
	env       notification.Envelope
	id        string
	createdAt time.Time
	machine   *statemachine.Machine[notification.Status, event]
}

// Process delivers env and returns the orchestration id. On any failure after
// the PENDING record was written, the record is moved to FAILED before the
// error is returned.
func (s *Service) Process(ctx context.Context, env notification.Envelope) (string, error) {
	started := s.now()
	a, err := s.begin(ctx, env)
	if err != nil {
		s.observe(env.Type, notification.KindOf(err), started)
		return "", err
	}

	id, err := s.deliver(ctx, a)
	s.observe(env.Type, kindOrEmpty(err), started)
	return id, err
}

func (s *Service) begin(ctx context.Context, env notification.Envelope) (*attempt, error) {
	if env.Payload == nil {
		return nil, &notification.DeliveryError{Kind: notification.ErrorValidation, Err: ErrNilEnvelopePayload}
	}

	createdAt := notification.Truncate(s.now())
	a := &attempt{
		env:       env,
		id:        s.newID(),
		createdAt: createdAt,
		machine:   s.lifecycle.New(notification.StatusPending),
	}

	rec := notification.Record{
		ID:                     a.id,
		CreatedAt:              createdAt,
		Type:                   env.Type,
		UserEmail:              env.UserEmail,
		UserID:                 env.UserID,
		Status:                 notification.StatusPending,
		Data:                   notification.Snapshot(env.Payload),
		OriginalNotificationID: env.ID,
		UpdatedAt:              createdAt,
	}
	if err := s.store.CreatePending(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist pending notification",
			logger.NotificationType(env.Type),
			logger.Error(err),
		)
		return nil, &notification.DeliveryError{Kind: notification.ErrorStore, Err: err}
	}
	return a, nil
}

func (s *Service) deliver(ctx context.Context, a *attempt) (string, error) {
	bundle, err := s.templates.Get(ctx, a.env.Type)
	if err != nil {
		kind := notification.ErrorTemplateFetch
		if errors.Is(err, templates.ErrTemplateNotFound) {
			kind = notification.ErrorTemplateNotFound
		}
		return "", s.fail(ctx, a, kind, err)
	}

	msg, err := s.renderer.Render(bundle, s.variables(a))
	if err != nil {
		// Drop the cached copy so a corrected template is fetched on redelivery.
		if inv, ok := s.templates.(invalidator); ok {
			inv.Invalidate(a.env.Type)
		}
		return "", s.fail(ctx, a, notification.ErrorRender, err)
	}

	messageID, err := s.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   a.env.UserEmail,
		Subject:  msg.Subject,
		BodyHTML: msg.HTML,
		BodyText: msg.Text,
		Tag:      string(a.env.Type),
		Metadata: map[string]string{
			"notificationId":   a.id,
			"notificationType": string(a.env.Type),
			"userId":           a.env.UserID,
		},
	})
	if err != nil {
		kind := notification.ErrorTransport
		if errors.Is(err, email.ErrInvalidParams) {
			kind = notification.ErrorValidation
		}
		return "", s.fail(ctx, a, kind, err)
	}

	sentAt := notification.Truncate(s.now())
	err = a.machine.Fire(context.WithoutCancel(ctx), eventDelivered, transition{
		id:        a.id,
		createdAt: a.createdAt,
		attrs: notification.TransitionAttrs{
			SentAt:             &sentAt,
			TransportMessageID: messageID,
			UpdatedAt:          sentAt,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist sent notification",
			logger.NotificationID(a.id),
			logger.MessageID(messageID),
			logger.Error(err),
		)
		return "", &notification.DeliveryError{Kind: notification.ErrorStore, NotificationID: a.id, Err: err}
	}

	s.logger.InfoContext(ctx, "notification sent",
		logger.NotificationID(a.id),
		logger.NotificationType(a.env.Type),
		logger.MessageID(messageID),
	)
	return a.id, nil
}

// fail moves the attempt to FAILED and records the cause. The terminal write
// ignores caller cancellation so an abandoned request still settles its record.
func (s *Service) fail(ctx context.Context, a *attempt, kind notification.ErrorType, cause error) error {
	writeCtx := context.WithoutCancel(ctx)
	now := notification.Truncate(s.now())

	derr := &notification.DeliveryError{Kind: kind, NotificationID: a.id, Err: cause}
	if err := a.machine.Fire(writeCtx, eventFailed, transition{
		id:        a.id,
		createdAt: a.createdAt,
		attrs: notification.TransitionAttrs{
			ErrorMessage: cause.Error(),
			UpdatedAt:    now,
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist failed notification",
			logger.NotificationID(a.id),
			logger.ErrorType(kind),
			logger.Error(err),
		)
		derr = &notification.DeliveryError{Kind: notification.ErrorStore, NotificationID: a.id, Err: errors.Join(cause, err)}
	}

	rec := notification.NewErrorRecord(kind, notification.SourceDelivery, now)
	rec.NotificationID = a.id
	rec.NotificationType = string(a.env.Type)
	rec.UserEmail = a.env.UserEmail
	rec.UserID = a.env.UserID
	rec.SourceMessageID = a.env.ID
	rec.ErrorMessage = cause.Error()
	if raw, err := a.env.MarshalJSON(); err == nil {
		rec.OriginalMessage = string(raw)
	}
	if err := s.errors.AppendError(writeCtx, rec); err != nil {
		s.logger.WarnContext(ctx, "failed to write error record",
			logger.NotificationID(a.id),
			logger.ErrorType(kind),
			logger.Error(err),
		)
	}
	stat := notification.NewErrorStatistic(kind, string(a.env.Type), now)
	if err := s.errors.AppendStatistic(writeCtx, stat); err != nil {
		s.logger.WarnContext(ctx, "failed to write error statistic",
			logger.NotificationID(a.id),
			logger.ErrorType(kind),
			logger.Error(err),
		)
	}

	s.logger.WarnContext(ctx, "notification failed",
		logger.NotificationID(a.id),
		logger.NotificationType(a.env.Type),
		logger.ErrorType(kind),
		logger.Error(cause),
	)
	return derr
}

func (s *Service) variables(a *attempt) map[string]any {
	vars := a.env.Variables()
	vars["timestamp"] = notification.FormatTime(a.createdAt)
	vars["notificationId"] = a.id
	vars["originalNotificationId"] = a.env.ID
	return vars
}

func (s *Service) observe(t notification.Type, kind notification.ErrorType, started time.Time) {
	status := notification.StatusSent
	if kind != "" {
		status = notification.StatusFailed
		s.metrics.failures.WithLabelValues(string(kind)).Inc()
	}
	s.metrics.processed.WithLabelValues(string(t), string(status)).Inc()
	s.metrics.duration.WithLabelValues(string(t)).Observe(s.now().Sub(started).Seconds())
}

func kindOrEmpty(err error) notification.ErrorType {
	if err == nil {
		return ""
	}
	return notification.KindOf(err)
}

package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/schema"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
)

// HandlerErrorType is the notification type recorded on critical records.
const HandlerErrorType = "HANDLER_ERROR"

// Message is one dead-lettered queue message.
type Message struct {
	ID         string
	Body       []byte
	RetryCount int
	Attributes map[string]string
}

type Classifier struct {
	sink   store.ErrorSink
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Classifier)

func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClassifier writes records and statistics to sink, typically an
// errorstats.Sink so statistics also reach the rollups.
func NewClassifier(sink store.ErrorSink, opts ...Option) *Classifier {
	c := &Classifier{sink: sink, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("deadletter"))
	return c
}

// Handle classifies msg and records the diagnosis. It returns the recorded
// error type and never fails.
func (c *Classifier) Handle(ctx context.Context, msg Message) (kind notification.ErrorType) {
	defer func() {
		if r := recover(); r != nil {
			kind = c.critical(ctx, msg, fmt.Errorf("%w: %v", ErrClassifierPanic, r))
		}
	}()

	rec := c.classify(msg)
	if err := c.sink.AppendError(ctx, rec); err != nil {
		return c.critical(ctx, msg, err)
	}
	c.logger.InfoContext(ctx, "dead letter classified",
		logger.MessageID(msg.ID),
		logger.ErrorType(rec.ErrorType),
		logger.NotificationType(rec.NotificationType),
		logger.RetryCount(msg.RetryCount),
	)

	stat := notification.NewErrorStatistic(rec.ErrorType, rec.NotificationType, c.now())
	if err := c.sink.AppendStatistic(ctx, stat); err != nil {
		c.logger.WarnContext(ctx, "failed to record error statistic",
			logger.MessageID(msg.ID),
			logger.ErrorType(rec.ErrorType),
			logger.Error(err),
		)
	}
	return rec.ErrorType
}

func (c *Classifier) classify(msg Message) notification.ErrorRecord {
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(msg.Body, &loose); err != nil || loose == nil {
		rec := c.newRecord(notification.ErrorParse, msg)
		rec.ErrorMessage = "Failed to parse JSON message from the dead-letter queue."
		return rec
	}

	hint := identify(loose)
	_, err := schema.ValidateEnvelope(msg.Body)
	if err == nil {
		rec := c.newRecord(notification.ErrorProcessingFailed, msg)
		hint.apply(&rec)
		rec.ErrorMessage = "General processing failure during notification handling."
		return rec
	}

	rec := c.newRecord(notification.ErrorSchemaValidation, msg)
	hint.apply(&rec)
	rec.SchemaUsed = hint.typ
	if rec.SchemaUsed == "" {
		rec.SchemaUsed = notification.Unknown
	}
	if se, ok := schema.AsError(err); ok {
		rec.ValidationErrors = se.Messages()
	} else {
		rec.ValidationErrors = []string{err.Error()}
	}
	rec.MissingFields, rec.InvalidFields = SplitFields(rec.ValidationErrors)
	rec.ErrorMessage = schemaMessage(rec.NotificationType, rec.MissingFields, rec.InvalidFields)
	return rec
}

func (c *Classifier) newRecord(kind notification.ErrorType, msg Message) notification.ErrorRecord {
	rec := notification.NewErrorRecord(kind, notification.SourceDeadLetter, c.now())
	rec.OriginalMessage = string(msg.Body)
	rec.SourceMessageID = msg.ID
	rec.RetryCount = msg.RetryCount
	for k, v := range msg.Attributes {
		rec.Attributes[k] = v
	}
	return rec
}

// critical writes the fallback record. It must not panic.
func (c *Classifier) critical(ctx context.Context, msg Message, cause error) notification.ErrorType {
	c.logger.ErrorContext(ctx, "dead letter handler failed", logger.MessageID(msg.ID), logger.Error(cause))

	rec := notification.NewErrorRecord(notification.ErrorCriticalHandlerError, notification.SourceErrorHandler, c.now())
	rec.OriginalMessage = string(msg.Body)
	rec.SourceMessageID = msg.ID
	rec.RetryCount = msg.RetryCount
	rec.UserEmail = notification.System
	rec.UserID = notification.System
	rec.NotificationType = HandlerErrorType
	rec.ErrorMessage = "Error handler failed: " + cause.Error()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrClassifierPanic, r)
			}
		}()
		return c.sink.AppendError(ctx, rec)
	}()
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to record critical handler error, dead letter is lost",
			logger.MessageID(msg.ID),
			logger.Error(err),
		)
	}
	return notification.ErrorCriticalHandlerError
}

// envelopeHint is what could be read from a body regardless of validity.
type envelopeHint struct {
	typ, email, userID string
}

func identify(loose map[string]json.RawMessage) envelopeHint {
	str := func(key string) string {
		var s string
		if raw, ok := loose[key]; ok && json.Unmarshal(raw, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	return envelopeHint{typ: str("type"), email: str("userEmail"), userID: str("userId")}
}

func (h envelopeHint) apply(rec *notification.ErrorRecord) {
	if h.typ != "" {
		rec.NotificationType = h.typ
	}
	if h.email != "" {
		rec.UserEmail = h.email
	}
	if h.userID != "" {
		rec.UserID = h.userID
	}
}

var quotedField = regexp.MustCompile(`^"([^"]+)"`)

// SplitFields extracts the quoted field names of validation messages into
// missing fields ("required") and invalid fields ("must be", "invalid",
// "is not allowed"). Names are reported once, in message order.
func SplitFields(messages []string) (missing, invalid []string) {
	missing, invalid = []string{}, []string{}
	seen := map[string]bool{}
	for _, m := range messages {
		match := quotedField.FindStringSubmatch(m)
		if match == nil || seen[match[1]] {
			continue
		}
		switch {
		case strings.Contains(m, "required"):
			missing = append(missing, match[1])
		case strings.Contains(m, "must be"), strings.Contains(m, "invalid"), strings.Contains(m, "is not allowed"):
			invalid = append(invalid, match[1])
		default:
			continue
		}
		seen[match[1]] = true
	}
	return missing, invalid
}

func schemaMessage(notificationType string, missing, invalid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema validation failed for notification type '%s'.", notificationType)
	if len(missing) > 0 {
		b.WriteString(" Missing required fields: " + strings.Join(missing, ", ") + ".")
	}
	if len(invalid) > 0 {
		b.WriteString(" Invalid fields: " + strings.Join(invalid, ", ") + ".")
	}
	return b.String()
}

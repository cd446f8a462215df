package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownType = errors.New("unknown notification type")

// ErrorType is the closed failure taxonomy recorded on ErrorRecords.
type ErrorType string

const (
	ErrorValidation           ErrorType = "VALIDATION_ERROR"
	ErrorTemplateNotFound     ErrorType = "TEMPLATE_NOT_FOUND"
	ErrorTemplateFetch        ErrorType = "TEMPLATE_FETCH_ERROR"
	ErrorRender               ErrorType = "RENDER_ERROR"
	ErrorTransport            ErrorType = "TRANSPORT_ERROR"
	ErrorStore                ErrorType = "STORE_ERROR"
	ErrorParse                ErrorType = "PARSE_ERROR"
	ErrorSchemaValidation     ErrorType = "SCHEMA_VALIDATION_ERROR"
	ErrorProcessingFailed     ErrorType = "PROCESSING_FAILED"
	ErrorCriticalHandlerError ErrorType = "CRITICAL_HANDLER_ERROR"
)

// Retryable reports whether a failure of this kind may succeed on redelivery.
func (t ErrorType) Retryable() bool {
	switch t {
	case ErrorTransport, ErrorStore, ErrorTemplateFetch:
		return true
	}
	return false
}

// Error record sources.
const (
	SourceDelivery     = "DELIVERY"
	SourceDeadLetter   = "NOTIFICATION_DLQ"
	SourceErrorHandler = "ERROR_HANDLER"
)

// Sentinel values used when the originating user cannot be determined.
const (
	Unknown = "unknown"
	System  = "system"
)

// ErrorRecord is an immutable diagnostic entry. Optional diagnostics are
// always present, as empty values when not applicable.
type ErrorRecord struct {
	ID               string            `json:"id" bson:"id"`
	CreatedAt        time.Time         `json:"createdAt" bson:"createdAt"`
	ErrorType        ErrorType         `json:"errorType" bson:"errorType"`
	Source           string            `json:"source" bson:"source"`
	OriginalMessage  string            `json:"originalMessage" bson:"originalMessage"`
	SourceMessageID  string            `json:"sourceMessageId" bson:"sourceMessageId"`
	NotificationID   string            `json:"notificationId" bson:"notificationId"`
	NotificationType string            `json:"notificationType" bson:"notificationType"`
	UserEmail        string            `json:"userEmail" bson:"userEmail"`
	UserID           string            `json:"userId" bson:"userId"`
	MissingFields    []string          `json:"missingFields" bson:"missingFields"`
	InvalidFields    []string          `json:"invalidFields" bson:"invalidFields"`
	ValidationErrors []string          `json:"validationErrors" bson:"validationErrors"`
	SchemaUsed       string            `json:"schemaUsed" bson:"schemaUsed"`
	RetryCount       int               `json:"retryCount" bson:"retryCount"`
	ErrorMessage     string            `json:"errorMessage" bson:"errorMessage"`
	Attributes       map[string]string `json:"attributes" bson:"attributes"`
}

// NewErrorRecord returns a record with a fresh id, empty diagnostics and the
// user fields set to Unknown.
func NewErrorRecord(errType ErrorType, source string, now time.Time) ErrorRecord {
	return ErrorRecord{
		ID:               uuid.NewString(),
		CreatedAt:        Truncate(now),
		ErrorType:        errType,
		Source:           source,
		NotificationType: Unknown,
		UserEmail:        Unknown,
		UserID:           Unknown,
		MissingFields:    []string{},
		InvalidFields:    []string{},
		ValidationErrors: []string{},
		Attributes:       map[string]string{},
	}
}

// ErrorStatistic is one increment of the per type, per hour error counters.
type ErrorStatistic struct {
	ID               string    `json:"id" bson:"id"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	ErrorType        ErrorType `json:"errorType" bson:"errorType"`
	NotificationType string    `json:"notificationType" bson:"notificationType"`
	Date             string    `json:"date" bson:"date"`
	Hour             int       `json:"hour" bson:"hour"`
	Count            int       `json:"count" bson:"count"`
}

func NewErrorStatistic(errType ErrorType, notificationType string, now time.Time) ErrorStatistic {
	now = Truncate(now)
	if notificationType == "" {
		notificationType = Unknown
	}
	return ErrorStatistic{
		ID:               uuid.NewString(),
		CreatedAt:        now,
		ErrorType:        errType,
		NotificationType: notificationType,
		Date:             now.Format(time.DateOnly),
		Hour:             now.Hour(),
		Count:            1,
	}
}

// DeliveryError is returned by the orchestrator. Kind classifies the failed
// step; NotificationID is empty when the record could not be created.
type DeliveryError struct {
	Kind           ErrorType
	NotificationID string
	Err            error
}

func (e *DeliveryError) Error() string {
	if e.NotificationID == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: notification %s: %v", e.Kind, e.NotificationID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Retryable reports whether redelivering the same envelope may succeed.
func (e *DeliveryError) Retryable() bool { return e.Kind.Retryable() }

// KindOf returns the ErrorType carried by err, or ErrorProcessingFailed when
// err is not a DeliveryError.
func KindOf(err error) ErrorType {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrorProcessingFailed
}

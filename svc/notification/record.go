package notification

import "time"

// Status is the delivery lifecycle state of a Record.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Record is the persisted projection of one delivery attempt. It is keyed by
// (ID, CreatedAt) and is created PENDING, then moved once to SENT or FAILED.
type Record struct {
	ID                     string         `json:"id" bson:"id"`
	CreatedAt              time.Time      `json:"createdAt" bson:"createdAt"`
	Type                   Type           `json:"type" bson:"type"`
	UserEmail              string         `json:"userEmail" bson:"userEmail"`
	UserID                 string         `json:"userId" bson:"userId"`
	Status                 Status         `json:"status" bson:"status"`
	Data                   map[string]any `json:"data" bson:"data"`
	OriginalNotificationID string         `json:"originalNotificationId,omitempty" bson:"originalNotificationId,omitempty"`
	SentAt                 *time.Time     `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	TransportMessageID     string         `json:"transportMessageId,omitempty" bson:"transportMessageId,omitempty"`
	ErrorMessage           string         `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	UpdatedAt              time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// TransitionAttrs carries the attributes set by a terminal transition. Empty
// fields are not written.
type TransitionAttrs struct {
	SentAt             *time.Time
	TransportMessageID string
	ErrorMessage       string
	UpdatedAt          time.Time
}

// Apply copies the non-empty attributes onto r. Existing values are never
// cleared.
func (a TransitionAttrs) Apply(r *Record, status Status) {
	r.Status = status
	if a.SentAt != nil {
		sent := *a.SentAt
		r.SentAt = &sent
	}
	if a.TransportMessageID != "" {
		r.TransportMessageID = a.TransportMessageID
	}
	if a.ErrorMessage != "" {
		r.ErrorMessage = a.ErrorMessage
	}
	if !a.UpdatedAt.IsZero() {
		r.UpdatedAt = a.UpdatedAt
	}
}

// Truncate normalizes t to the precision every store keeps.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

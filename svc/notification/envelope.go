package notification

import (
	"encoding/json"
	"time"
)

// Envelope is an inbound notification request after validation.
type Envelope struct {
	ID        string
	Type      Type
	UserEmail string
	UserID    string
	CreatedAt time.Time
	Payload   Payload
}

type envelopeJSON struct {
	ID        string  `json:"id,omitempty"`
	Type      Type    `json:"type"`
	UserEmail string  `json:"userEmail"`
	UserID    string  `json:"userId"`
	CreatedAt string  `json:"createdAt,omitempty"`
	Data      Payload `json:"data"`
}

// MarshalJSON emits the wire shape accepted by the ingress endpoints, so an
// envelope can be re-enqueued as is.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := envelopeJSON{
		ID:        e.ID,
		Type:      e.Type,
		UserEmail: e.UserEmail,
		UserID:    e.UserID,
		Data:      e.Payload,
	}
	if !e.CreatedAt.IsZero() {
		out.CreatedAt = FormatTime(e.CreatedAt)
	}
	return json.Marshal(out)
}

// Variables merges payload variables with the envelope level fields that
// every template may reference.
func (e Envelope) Variables() map[string]any {
	vars := map[string]any{}
	if e.Payload != nil {
		for k, v := range e.Payload.Variables() {
			vars[k] = v
		}
	}
	vars["userEmail"] = e.UserEmail
	vars["userId"] = e.UserID
	vars["notificationType"] = string(e.Type)
	return vars
}

// FormatTime renders t the way every persisted and emitted timestamp is
// written: UTC, RFC 3339 with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

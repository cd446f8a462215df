package email

import (
	"context"
	"fmt"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/validator"
)

// EmailSender delivers a single rendered message and returns the
// transport-assigned message id.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) (string, error)
}

type SendEmailParams struct {
	SendTo   string            `json:"send_to"`
	Subject  string            `json:"subject"`
	BodyHTML string            `json:"body_html"`
	BodyText string            `json:"body_text,omitempty"`
	Tag      string            `json:"tag,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (p SendEmailParams) Validate() error {
	switch {
	case p.SendTo == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !validator.IsEmail(p.SendTo):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case p.Subject == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case p.BodyHTML == "" && p.BodyText == "":
		return fmt.Errorf("%w: BodyHTML or BodyText is required", ErrInvalidParams)
	}
	return nil
}

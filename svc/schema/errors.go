package schema

import (
	"errors"
	"strings"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/validator"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

var (
	// ErrMalformed is returned when the body is not a JSON object.
	ErrMalformed = errors.New("schema: malformed notification body")
	// ErrInvalid is matched by every *Error.
	ErrInvalid = errors.New("schema: invalid notification")
	// ErrTypeRequired is matched when the envelope carries no type.
	ErrTypeRequired = errors.New("schema: notification type is required")
)

// Error lists every violation found in one envelope or payload.
type Error struct {
	// Schema names the payload family checked, empty when the type was
	// missing or unknown.
	Schema string
	Issues validator.ValidationErrors
	cause  error
}

func (e *Error) Error() string {
	return "invalid notification: " + strings.Join(e.Messages(), "; ")
}

// Messages renders each issue as `"field" message`.
func (e *Error) Messages() []string {
	return e.Issues.Messages()
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrInvalid, e.Issues}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// AsError extracts *Error from err.
func AsError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}

func newError(schema string, issues validator.ValidationErrors, cause error) error {
	if len(issues) == 0 {
		return nil
	}
	return &Error{Schema: schema, Issues: issues, cause: cause}
}

func schemaName(t notification.Type) string {
	if f := t.Family(); f != "" {
		return string(f)
	}
	return ""
}

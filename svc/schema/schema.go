package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/validator"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

var cardKinds = []string{string(notification.CardCredit), string(notification.CardDebit)}

// Validate checks data against the schema registered for t and returns the
// typed payload.
func Validate(t notification.Type, data json.RawMessage) (notification.Payload, error) {
	if !t.Valid() {
		return nil, unknownType("type", t)
	}
	o, ok := decodeObject("data", data)
	if !ok {
		return nil, newError(schemaName(t), validator.Collect(validator.TypeMismatch("data", "object")), nil)
	}
	p := validatePayload(t.Family(), o)
	if err := newError(schemaName(t), o.issues, nil); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateEnvelope parses and validates a complete envelope. ID and
// CreatedAt are copied when supplied and left zero otherwise; callers assign
// them. A legacy "uuid" field is accepted in place of "id".
func ValidateEnvelope(raw []byte) (notification.Envelope, error) {
	o, ok := decodeObject("", raw)
	if !ok {
		return notification.Envelope{}, ErrMalformed
	}

	var env notification.Envelope
	var cause error

	typeName, hasType := o.str("type", false)
	switch {
	case !hasType:
		if _, present := o.raw("type"); !present {
			o.check(validator.Required("type", false))
			cause = ErrTypeRequired
		}
	default:
		env.Type = notification.Type(typeName)
		if !env.Type.Valid() {
			o.issues.Merge(unknownIssue("type", env.Type))
			cause = notification.ErrUnknownType
		}
	}

	idField := "id"
	if _, ok := o.raw("id"); !ok {
		if _, ok := o.raw("uuid"); ok {
			idField = "uuid"
		}
	}
	if id, ok := o.str(idField, false); ok {
		o.check(validator.ValidUUID(idField, id))
		env.ID = id
	}

	if email, ok := o.str("userEmail", true); ok {
		o.check(validator.ValidEmail("userEmail", email))
		env.UserEmail = email
	}
	if userID, ok := o.str("userId", true); ok {
		env.UserID = userID
	}
	if created, ok := o.isoDate("createdAt", false); ok {
		if t, valid := validator.ParseISODate(created); valid {
			env.CreatedAt = t.UTC()
		}
	}

	if data, ok := o.raw("data"); !ok {
		o.check(validator.Required("data", false))
	} else if env.Type.Valid() {
		if payloadObj, ok := decodeObject("data", data); ok {
			env.Payload = validatePayload(env.Type.Family(), payloadObj)
			o.issues.Merge(payloadObj.issues)
		} else {
			o.check(validator.TypeMismatch("data", "object"))
		}
	}

	if err := newError(schemaName(env.Type), o.issues, cause); err != nil {
		return notification.Envelope{}, err
	}
	return env, nil
}

// validatePayload switches over every payload family. Adding a Family
// without a case here fails TestEveryTypeHasSchema.
func validatePayload(f notification.Family, o *object) notification.Payload {
	switch f {
	case notification.FamilyWelcome:
		var d notification.WelcomeData
		if name, ok := o.str("fullname", true); ok {
			o.check(
				validator.MinLenString(o.path("fullname"), name, 2),
				validator.MaxLenString(o.path("fullname"), name, 100),
			)
			d.FullName = name
		}
		return d

	case notification.FamilyUser:
		var d notification.UserData
		d.Date, _ = o.isoDate("date", true)
		return d

	case notification.FamilyCard:
		var d notification.CardData
		d.Date, _ = o.isoDate("date", true)
		if kind, ok := o.str("type", true); ok {
			o.check(validator.InListString(o.path("type"), kind, cardKinds))
			d.Kind = notification.CardKind(kind)
		}
		if amount, ok := o.num("amount", false); ok {
			o.check(validator.PositiveAmount(o.path("amount"), amount))
			d.Amount = &amount
		}
		return d

	case notification.FamilyPurchase:
		var d notification.PurchaseData
		d.Date, _ = o.isoDate("date", true)
		d.Amount = o.amount()
		d.CardID, _ = o.str("cardId", true)
		d.Merchant = o.merchant()
		return d

	case notification.FamilyTransaction:
		var d notification.TransactionData
		d.Date, _ = o.isoDate("date", true)
		d.Amount = o.amount()
		d.Merchant = o.merchant()
		return d

	case notification.FamilyReport:
		var d notification.ReportData
		d.Date, _ = o.isoDate("date", true)
		if url, ok := o.str("url", true); ok {
			o.check(validator.ValidURL(o.path("url"), url))
			d.URL = url
		}
		return d
	}
	panic(fmt.Sprintf("schema: no payload schema for family %q", f))
}

func (o *object) amount() float64 {
	amount, ok := o.num("amount", true)
	if ok {
		o.check(validator.PositiveAmount(o.path("amount"), amount))
	}
	return amount
}

func (o *object) merchant() string {
	merchant, ok := o.str("merchant", true)
	if ok {
		o.check(
			validator.MinLenString(o.path("merchant"), merchant, 2),
			validator.MaxLenString(o.path("merchant"), merchant, 100),
		)
	}
	return merchant
}

func unknownIssue(field string, t notification.Type) validator.ValidationErrors {
	return validator.ValidationErrors{{
		Field:   field,
		Message: fmt.Sprintf("must be a known notification type, got %q", string(t)),
		Key:     "validation.notification_type",
		Values:  map[string]any{"field": field, "value": string(t)},
	}}
}

func unknownType(field string, t notification.Type) error {
	return &Error{Issues: unknownIssue(field, t), cause: notification.ErrUnknownType}
}

// Describe returns a short human readable summary of err for logs and API
// responses.
func Describe(err error) string {
	if se, ok := AsError(err); ok {
		return strings.Join(se.Messages(), "; ")
	}
	return err.Error()
}

package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Required reports a failure when present is false. Use it for values whose
// absence cannot be inferred from a zero value (optional pointers, raw JSON).
func Required(field string, present bool) Rule {
	return Rule{
		Check: func() bool { return present },
		Error: newError(field, "is required", "validation.required", nil),
	}
}

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: newError(field, "is required", "validation.required", nil),
	}
}

// MinLenString counts runes, not bytes.
func MinLenString(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= min },
		Error: newError(field,
			fmt.Sprintf("length must be at least %d characters long", min),
			"validation.min_length", map[string]any{"min": min}),
	}
}

func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: newError(field,
			fmt.Sprintf("length must be less than or equal to %d characters long", max),
			"validation.max_length", map[string]any{"max": max}),
	}
}

// IsEmail reports whether value is a bare address accepted by net/mail with
// a dotted domain.
func IsEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	local, domain, ok := strings.Cut(value, "@")
	if !ok || local == "" || !strings.Contains(domain, ".") {
		return false
	}
	for part := range strings.SplitSeq(domain, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// ValidEmail validates an address with IsEmail.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool { return IsEmail(value) },
		Error: newError(field, "must be a valid email", "validation.email", nil),
	}
}

// ValidURL requires an absolute URL with scheme and host.
func ValidURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.ParseRequestURI(value)
			return err == nil && u.Scheme != "" && u.Host != ""
		},
		Error: newError(field, "must be a valid uri", "validation.url", nil),
	}
}

// ISODateLayouts lists the accepted ISO-8601 forms, from most to least specific.
var ISODateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISODate parses value using ISODateLayouts.
func ParseISODate(value string) (time.Time, bool) {
	for _, layout := range ISODateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func ValidISODate(field, value string) Rule {
	return Rule{
		Check: func() bool {
			_, ok := ParseISODate(value)
			return ok
		},
		Error: newError(field, "must be in ISO 8601 date format", "validation.iso_date", nil),
	}
}

func PositiveAmount[T Numeric](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value > 0 },
		Error: newError(field, "must be a positive number", "validation.positive_amount", nil),
	}
}

func InListString(field, value string, allowed []string) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: newError(field,
			fmt.Sprintf("must be one of [%s]", strings.Join(allowed, ", ")),
			"validation.in_list", map[string]any{"allowed_values": allowed}),
	}
}

// ValidUUID accepts the canonical 36 character hyphenated form only.
func ValidUUID(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) != 36 {
				return false
			}
			_, err := uuid.Parse(value)
			return err == nil
		},
		Error: newError(field, "must be a valid GUID", "validation.uuid", nil),
	}
}

// TypeMismatch builds a failed rule for a value of the wrong JSON type.
func TypeMismatch(field, want string) Rule {
	return Rule{
		Check: func() bool { return false },
		Error: newError(field, "must be of type "+want, "validation.type", map[string]any{"type": want}),
	}
}

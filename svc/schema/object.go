package schema

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/validator"
)

// object reads typed fields out of a decoded JSON object and records
// presence and type problems as it goes.
type object struct {
	prefix string
	fields map[string]json.RawMessage
	issues validator.ValidationErrors
}

func decodeObject(prefix string, raw []byte) (*object, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	o := &object{prefix: prefix}
	if err := json.Unmarshal(raw, &o.fields); err != nil {
		return nil, false
	}
	return o, true
}

func (o *object) path(name string) string {
	if o.prefix == "" {
		return name
	}
	return o.prefix + "." + name
}

func (o *object) check(rules ...validator.Rule) {
	o.issues.Merge(validator.Collect(rules...))
}

func (o *object) raw(name string) (json.RawMessage, bool) {
	raw, ok := o.fields[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, false
	}
	return raw, true
}

// str returns the string value of name. present reports whether a usable
// value was found; missing values are reported only when required.
func (o *object) str(name string, required bool) (value string, present bool) {
	raw, ok := o.raw(name)
	if !ok {
		if required {
			o.check(validator.Required(o.path(name), false))
		}
		return "", false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		o.check(validator.TypeMismatch(o.path(name), "string"))
		return "", false
	}
	if required && strings.TrimSpace(value) == "" {
		o.check(validator.RequiredString(o.path(name), value))
		return "", false
	}
	return value, true
}

// num accepts JSON numbers and numeric strings.
func (o *object) num(name string, required bool) (value float64, present bool) {
	raw, ok := o.raw(name)
	if !ok {
		if required {
			o.check(validator.Required(o.path(name), false))
		}
		return 0, false
	}
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	o.check(validator.TypeMismatch(o.path(name), "number"))
	return 0, false
}

func (o *object) isoDate(name string, required bool) (string, bool) {
	v, ok := o.str(name, required)
	if ok {
		o.check(validator.ValidISODate(o.path(name), v))
	}
	return v, ok
}

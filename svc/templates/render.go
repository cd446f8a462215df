package templates

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// Rendered is a bundle with every placeholder resolved.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns a bundle and variables into a message.
type Renderer interface {
	Render(b Bundle, vars map[string]any) (Rendered, error)
}

// PlaceholderRenderer implements the {{name}} and {{#if name}} syntax. Values
// substituted into the HTML body are HTML escaped.
type PlaceholderRenderer struct{}

var (
	conditionalRe = regexp.MustCompile(`(?s)\{\{#if\s+([A-Za-z0-9_.]+)\s*\}\}(.*?)\{\{/if\}\}`)
	placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_.]+)\}\}`)
)

// Render is the package level shorthand for PlaceholderRenderer.Render.
func Render(b Bundle, vars map[string]any) (Rendered, error) {
	return PlaceholderRenderer{}.Render(b, vars)
}

func (PlaceholderRenderer) Render(b Bundle, vars map[string]any) (Rendered, error) {
	subject, err := renderPart("subject", b.Subject, vars, false)
	if err != nil {
		return Rendered{}, err
	}
	body, err := renderPart("html", b.HTML, vars, true)
	if err != nil {
		return Rendered{}, err
	}
	text, err := renderPart("text", b.Text, vars, false)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: strings.TrimSpace(subject), HTML: body, Text: text}, nil
}

func renderPart(name, src string, vars map[string]any, escape bool) (string, error) {
	out := conditionalRe.ReplaceAllStringFunc(src, func(block string) string {
		m := conditionalRe.FindStringSubmatch(block)
		if truthy(vars[m[1]]) {
			return m[2]
		}
		return ""
	})
	if strings.Contains(out, "{{#if") || strings.Contains(out, "{{/if}}") {
		return "", fmt.Errorf("%w: unbalanced conditional in %s", ErrMalformedTemplate, name)
	}

	return placeholderRe.ReplaceAllStringFunc(out, func(ph string) string {
		key := ph[2 : len(ph)-2]
		v, ok := vars[key]
		if !ok || v == nil {
			return ph
		}
		s := format(v)
		if escape {
			s = html.EscapeString(s)
		}
		return s
	}), nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case *float64:
		return x != nil && *x != 0 && !math.IsNaN(*x)
	}
	return true
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return notification.FormatTime(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

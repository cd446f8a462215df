package templates

import "errors"

var (
	ErrTemplateNotFound  = errors.New("templates: template not found")
	ErrTemplateFetch     = errors.New("templates: failed to fetch template")
	ErrMalformedTemplate = errors.New("templates: malformed template syntax")
)

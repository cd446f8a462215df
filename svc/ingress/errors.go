package ingress

import "errors"

var (
	ErrEmptyBatch     = errors.New("ingress: batch has no items")
	ErrMalformedBatch = errors.New("ingress: every item in the batch has an empty body")
	ErrEmptyBody      = errors.New("ingress: request body is required")
	ErrBodyTooLarge   = errors.New("ingress: request body too large")
	ErrTooManyItems   = errors.New("ingress: too many notifications in bulk request")
	ErrQueueDisabled  = errors.New("ingress: queue publishing is not configured")
	ErrStatsDisabled  = errors.New("ingress: error statistics are not configured")
	ErrInvalidLimit   = errors.New("ingress: limit must be a positive integer")
)

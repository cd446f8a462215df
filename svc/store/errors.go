package store

import "errors"

var (
	ErrRecordNotFound    = errors.New("notification record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStore             = errors.New("store operation failed")
)

package kafka

import "errors"

var (
	ErrNoBrokers       = errors.New("kafka: no brokers configured")
	ErrPublishFailed   = errors.New("kafka: publish failed")
	ErrCommitFailed    = errors.New("kafka: commit failed")
	ErrFetchFailed     = errors.New("kafka: fetch failed")
	ErrHandlerMismatch = errors.New("kafka: handler returned wrong number of dispositions")
)

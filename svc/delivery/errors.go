package delivery

import "errors"

var (
	ErrNilEnvelopePayload = errors.New("envelope has no payload")
	ErrInvalidRecipient   = errors.New("invalid test recipient")
)

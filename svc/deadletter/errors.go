package deadletter

import "errors"

var ErrClassifierPanic = errors.New("deadletter: classifier panicked")

package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("mongo: MONGODB_URL is empty")
	ErrFailedToConnectToMongo = errors.New("mongo: server not reachable after all attempts")
	ErrHealthcheckFailed      = errors.New("mongo: ping failed")
)

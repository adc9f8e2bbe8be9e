package mongo

import "errors"

var (
	// ErrFailedToConnectToMongo reports that every connection attempt failed.
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	// ErrHealthcheckFailed wraps ping failures from the health probe.
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)

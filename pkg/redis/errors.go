package redis

import "errors"

// Sentinel errors returned by Connect and Healthcheck. They wrap the
// underlying go-redis errors via errors.Join so callers can match either side.
var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)

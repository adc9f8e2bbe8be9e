package config

import "errors"

var (
	// ErrParsingConfig wraps failures from the env tag parser.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrConfigNotLoaded reports a cache miss after parsing, which should not
	// happen unless the cache was tampered with.
	ErrConfigNotLoaded = errors.New("configuration has not been loaded")

	// ErrNilPointer reports a nil destination passed to Load.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)

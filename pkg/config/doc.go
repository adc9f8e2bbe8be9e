// Package config loads application configuration from environment variables
// into typed structs, caching each type so it is parsed at most once per
// process.
//
// It builds on github.com/joho/godotenv for .env file loading and
// github.com/caarlos0/env/v11 for tag-based parsing.
//
// Describe the configuration with `env` tags:
//
//	type DatabaseConfig struct {
//	    Host string `env:"DB_HOST,required"`
//	    Port int    `env:"DB_PORT" envDefault:"5432"`
//	}
//
// Then populate it:
//
//	var db DatabaseConfig
//	if err := config.Load(&db); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// The first Load for a type parses the environment; later calls return the
// cached copy, so every component sees the same snapshot. A .env file in the
// working directory is picked up automatically before the first parse.
//
// Failures are comparable with errors.Is: ErrParsingConfig wraps parser
// errors, ErrNilPointer reports a nil destination, and ErrConfigNotLoaded
// reports an unexpected cache miss.
package config

package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/inkwellhq/inkwell/pkg/environment"
)

type config struct {
	level      slog.Level
	json       bool
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// Option configures logger creation.
type Option func(*config)

// WithLevel sets the minimum record level.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithOutput redirects log output. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithContextExtractors registers functions that pull per-request attributes
// out of the context at log time. Nil extractors are dropped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// preset applies the per-tier defaults shared by the environment options.
func preset(c *config, service string, env environment.Environment, level slog.Level, json bool) {
	if service == "" {
		return
	}
	c.level = level
	c.json = json
	c.attrs = append(c.attrs,
		slog.String("service", service),
		slog.String("env", string(env)),
	)
}

// WithDevelopment selects text output at debug level.
func WithDevelopment(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Development, slog.LevelDebug, false)
	}
}

// WithProduction selects JSON output at info level.
func WithProduction(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Production, slog.LevelInfo, true)
	}
}

func WithStaging(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Staging, slog.LevelInfo, true)
	}
}

// WithEnvironment picks the preset matching env, accepting both full names
// and the short "prod"/"stage" forms. Anything else means development.
func WithEnvironment(env string, service string) Option {
	return func(c *config) {
		switch env {
		case string(environment.Production), "prod":
			WithProduction(service)(c)
		case string(environment.Staging), "stage":
			WithStaging(service)(c)
		default:
			WithDevelopment(service)(c)
		}
	}
}

// SetAsDefault installs l as the process-wide slog default.
func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// New builds a slog.Logger from the options, wrapping the handler in the
// context-extractor decorator so request-scoped attributes land on every
// record automatically. With no options the logger is production-safe:
// JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:  slog.LevelInfo,
		json:   true,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var handler slog.Handler
	if cfg.json {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(NewLogHandlerDecorator(handler, cfg.extractors...))
}

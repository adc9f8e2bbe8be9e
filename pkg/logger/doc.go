// Package logger builds context-aware slog loggers shared by every service
// binary.
//
// New assembles a *slog.Logger from functional options. The environment
// presets pick encoding and level per deployment tier, and ContextExtractor
// callbacks pull request-scoped values (request ID, environment) out of the
// context on every log call. The extractors run inside LogHandlerDecorator,
// which wraps the concrete text or JSON handler.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "inkwell"),
//	    logger.WithContextExtractors(
//	        requestid.LoggerExtractor(),
//	        environment.LoggerExtractor(),
//	    ),
//	)
//	logger.SetAsDefault(log)
//
// Attribute constructors in attr.go keep attribute keys consistent across
// the codebase; Error emits nothing for nil errors, so it can be passed
// unconditionally.
package logger

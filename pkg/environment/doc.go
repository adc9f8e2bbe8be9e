// Package environment propagates the deployment tier (development, staging,
// production) through context.Context, HTTP middleware and structured logs.
//
// The typed string Environment with its Development, Staging and Production
// constants travels in the context via WithContext / FromContext. Middleware
// stamps every request context, and LoggerExtractor feeds the value into
// slog as an "env" attribute:
//
//	r.Use(environment.Middleware(environment.Production))
//
// The helpers never return errors; a missing value reads as "".
package environment

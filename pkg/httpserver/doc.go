// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts and a health-check handler.
//
// Run starts the listener in its own goroutine and blocks until the context
// is canceled, an interrupt or TERM signal arrives, or the listener fails.
// Shutdown then drains connections within a configurable deadline.
// Construction goes through New or NewFromConfig with functional options:
//
//	r := chi.NewRouter()
//	r.Get("/health", httpserver.HealthCheckHandler(ctx, log))
//
//	srv := httpserver.New(
//		httpserver.WithAddr(":8080"),
//		httpserver.WithShutdownTimeout(10*time.Second),
//	)
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Listen failures are wrapped with ErrStart and shutdown failures with
// ErrShutdown; distinguish them with errors.Is.
package httpserver

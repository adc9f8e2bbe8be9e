package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/inkwellhq/inkwell/pkg/logger"
)

// HealthCheckHandler serves both probe styles. With no dependency checks it
// answers 200 "ALIVE" (liveness). With checks it runs each one and answers
// 200 "READY" when all pass or 500 "NOT_READY" on the first failure
// (readiness).
func HealthCheckHandler(ctx context.Context, log *slog.Logger, funcs ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(funcs) == 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ALIVE"))
			return
		}

		for _, f := range funcs {
			if err := f(ctx); err != nil {
				log.ErrorContext(ctx, "Readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}

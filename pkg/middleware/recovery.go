package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "venivici/pkg/errors"
	"venivici/pkg/logger"
)

// Recovery turns a handler panic into a 500 AppError response. http.ErrAbortHandler is
// re-raised so net/http can drop the connection as the handler asked.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.Error("Panic recovered",
					"request_id", RequestIDFromContext(r.Context()),
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				appErr := apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", rec))
				if err := apperrors.WriteError(w, appErr); err != nil {
					log.Error("failed to write error response", "middleware", "Recovery", "error", err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

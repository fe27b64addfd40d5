package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// recoveryBody matches the error envelope the handlers write, so a panic
// looks no different to clients than any other internal error.
const recoveryBody = `{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`

// Recovery converts panics in downstream handlers into a 500 response.
// A panic with http.ErrAbortHandler is re-raised untouched to keep
// net/http's connection-abort semantics.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(recoveryBody))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

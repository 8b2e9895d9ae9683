package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/starwars-api/internal/handler"
)

// Recoverer turns a handler panic into a logged stack trace and the standard
// JSON 500 body. It replaces chi's Recoverer, which answers with an empty body.
//
// http.ErrAbortHandler is re-panicked so net/http can abort the connection
// quietly, the same as chi does.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", chimiddleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", fmt.Sprint(rvr)),
					slog.String("stack", string(debug.Stack())),
				)
				handler.HandleInternalError(w, r)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

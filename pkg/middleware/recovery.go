package middleware

import (
	"errors"
	"fmt"
	"net/http"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500. A panic inside a lifecycle
// action happens before its transaction commits, so nothing is persisted.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(p)
				}

				log.Error("Panic recovered",
					"request_id", RequestIDFromContext(r.Context()),
					"user_id", r.Header.Get(httputil.HeaderUserID),
					"method", r.Method,
					"route", routeLabel(r.URL.Path),
					"error", p,
					"stack", string(debug.Stack()),
				)
				httputil.WriteError(w, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", p)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"roomly/pkg/metrics"
	"strconv"
	"strings"
	"time"
)

// Metrics records request counts and latency per route. Path ids are folded
// into ":id" to keep label cardinality bounded.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.ObserveHTTPRequest(r.Method, routeLabel(r.URL.Path), strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}

func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if segments[i-1] == "id" && segments[i] != "" {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

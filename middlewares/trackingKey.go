package middlewares

import (
	"crypto/subtle"
	"net/http"
	"time"

	"streamlit-analytics/logger"
)

// TrackingKeyHeader carries the shared key of instrumented apps.
const TrackingKeyHeader = "X-Analytics-Key"

// TrackingKeyMiddleware rejects requests whose X-Analytics-Key does not match
// key. An empty key disables the check.
func TrackingKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			got := r.Header.Get(TrackingKeyHeader)
			if got == "" {
				http.Error(w, "Please pass "+TrackingKeyHeader, http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Please provide a valid tracking key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
			logger.Audit.Debugf("TrackingKeyMiddleware Time Taken: %s", time.Since(start))
		})
	}
}

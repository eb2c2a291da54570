package middlewares

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
)

// SentryAlertMiddleware reports every 5xx response to the request's Sentry hub.
func SentryAlertMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)
		if sw.status < http.StatusInternalServerError {
			return
		}
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub()
		}
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("route", routeName(r))
			scope.SetRequest(r)
			hub.CaptureMessage(fmt.Sprintf("%s %s returned %d", r.Method, r.URL.Path, sw.status))
		})
	})
}

package middlewares

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"streamlit-analytics/metrics"
)

// statusWriter remembers the status code and stamps X-Response-Time before the
// header goes out.
type statusWriter struct {
	http.ResponseWriter
	start       time.Time
	status      int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
}

func (t *statusWriter) WriteHeader(statusCode int) {
	if !t.wroteHeader {
		t.ResponseWriter.Header().Set("X-Response-Time", time.Since(t.start).String())
		t.status = statusCode
		t.wroteHeader = true
	}
	t.ResponseWriter.WriteHeader(statusCode)
}

func (t *statusWriter) Write(b []byte) (int, error) {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}

func ResponseTimeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := newStatusWriter(w)
		next.ServeHTTP(tw, r)
		metrics.ObserveRequest(routeName(r), r.Method, tw.status, time.Since(tw.start))
	})
}

// routeName keeps the label set bounded by using the mux path template.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

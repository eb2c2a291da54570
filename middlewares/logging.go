package middlewares

import (
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"streamlit-analytics/logger"
)

// LoggingMiddleware logs audit information for every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Audit.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL.String(),
			"user_agent": r.UserAgent(),
			"ip":         getIPAddress(r),
		}).Info("request")

		next.ServeHTTP(w, r)
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header for proxies
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	// Fallback to RemoteAddr (trim port)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

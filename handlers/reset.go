package handlers

import (
	"net/http"

	"streamlit-analytics/cache"
	"streamlit-analytics/logger"
	"streamlit-analytics/report"
)

// ResetHandler clears every counter. It needs the dashboard password, so a
// public dashboard cannot be reset over HTTP.
func (h *Handlers) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if h.Password == nil {
		http.Error(w, "Reset needs a dashboard password", http.StatusForbidden)
		return
	}
	if r.FormValue(report.PasswordField) != *h.Password {
		http.Error(w, report.RejectionMessage, http.StatusUnauthorized)
		return
	}

	prev := h.Counter.Snapshot()
	h.Counter.Reset()

	if h.Charts != nil {
		if key, err := cache.ChartKey(prev.PerDay, h.ChartWidth, h.ChartHeight); err == nil {
			if err := h.Charts.Delete(key); err != nil {
				logger.Log.WithError(err).Warn("chart cache eviction failed")
			}
		}
	}
	if h.OnReset != nil {
		h.OnReset()
	}
	logger.Audit.WithField("pageviews", prev.TotalPageviews).Warn("counters reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

package handlers

import (
	"net/http"

	"streamlit-analytics/version"
)

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"message": "Server and database are up and running",
		"version": version.Version,
	}

	if h.DB == nil {
		response["message"] = "Server is up and running, no database configured"
		writeJSON(w, http.StatusOK, response)
		return
	}

	sqliteDB, err := h.DB.DB()
	if err == nil {
		err = sqliteDB.PingContext(r.Context())
	}
	if err != nil {
		response["status"] = "unhealthy"
		response["message"] = "Database connectivity failed"
		response["error"] = err.Error()
		writeJSON(w, http.StatusInternalServerError, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

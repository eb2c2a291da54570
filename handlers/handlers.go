// Package handlers holds the HTTP endpoints of the analytics service.
package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"streamlit-analytics/cache"
	"streamlit-analytics/models"
	"streamlit-analytics/report"
	"streamlit-analytics/tracker"
)

// Enqueuer buffers events before they reach the counter. Both batchers
// implement it.
type Enqueuer interface {
	Enqueue(evt models.Event)
}

type Handlers struct {
	Counter *tracker.Counter
	// Events receives accepted events; nil records them synchronously.
	Events   Enqueuer
	DB       *gorm.DB
	Charts   cache.ChartCache
	Password *string

	ChartWidth  int
	ChartHeight int

	// OnReset runs after the counters were cleared, e.g. to schedule a save.
	OnReset func()

	html *report.HTMLRenderer
}

func New(counter *tracker.Counter, password *string) *Handlers {
	h := &Handlers{
		Counter:     counter,
		Password:    password,
		ChartWidth:  report.DefaultChartWidth,
		ChartHeight: report.DefaultChartHeight,
	}
	h.html = &report.HTMLRenderer{Chart: func(spec report.ChartSpec) ([]byte, error) {
		svg, _, err := h.chartSVG(spec)
		return svg, err
	}}
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

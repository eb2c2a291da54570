package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"streamlit-analytics/cache"
	"streamlit-analytics/logger"
	"streamlit-analytics/metrics"
	"streamlit-analytics/report"
)

func (h *Handlers) document(r *http.Request) report.Document {
	doc := report.Render(h.Counter.Snapshot(), h.Password, r.FormValue(report.PasswordField))
	metrics.DashboardRendered(string(doc.Gate))
	return doc
}

// DashboardHandler serves the HTML dashboard. The password arrives as the
// "password" form value of a POST or in the query string.
func (h *Handlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r)

	var buf bytes.Buffer
	if err := h.html.Render(&buf, doc); err != nil {
		logger.Log.WithError(err).Error("render dashboard")
		http.Error(w, "Could not render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

// DocumentHandler serves the dashboard document as JSON.
func (h *Handlers) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r)

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, doc); err != nil {
		logger.Log.WithError(err).Error("encode dashboard document")
		http.Error(w, "Could not encode dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

// ChartHandler serves only the traffic chart, behind the same gate.
func (h *Handlers) ChartHandler(w http.ResponseWriter, r *http.Request) {
	doc := h.document(r)
	if !doc.Gate.Shows() {
		http.Error(w, "Password required", http.StatusUnauthorized)
		return
	}
	block, ok := doc.Find(report.KindLineChart)
	if !ok {
		http.Error(w, "No chart", http.StatusNotFound)
		return
	}

	svg, hit, err := h.chartSVG(block.(report.LineChart).Spec)
	if errors.Is(err, report.ErrEmptyChart) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("render chart")
		http.Error(w, "Could not render chart", http.StatusInternalServerError)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// chartSVG renders spec, going through the chart cache when one is set.
func (h *Handlers) chartSVG(spec report.ChartSpec) ([]byte, bool, error) {
	draw := report.SVGChartFunc(h.ChartWidth, h.ChartHeight)
	if h.Charts == nil {
		svg, err := draw(spec)
		return svg, false, err
	}

	key, err := cache.ChartKey(spec.Data, h.ChartWidth, h.ChartHeight)
	if err != nil {
		return nil, false, err
	}
	if svg, err := h.Charts.Get(key); err == nil {
		metrics.ChartCacheHit()
		return svg, true, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Log.WithError(err).Warn("chart cache lookup failed")
	}
	metrics.ChartCacheMiss()

	svg, err := draw(spec)
	if err != nil {
		return nil, false, err
	}
	if err := h.Charts.Set(key, svg); err != nil {
		logger.Log.WithError(err).Warn("chart cache store failed")
	}
	return svg, false, nil
}

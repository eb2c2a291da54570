package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlit-analytics/cache"
	"streamlit-analytics/config"
	"streamlit-analytics/models"
	"streamlit-analytics/tracker"
)

func strptr(s string) *string { return &s }

func newTestHandlers(t *testing.T, password *string) (*Handlers, *mux.Router) {
	t.Helper()
	h := New(tracker.New(), password)
	r := mux.NewRouter()
	r.HandleFunc("/track", h.TrackHandler).Methods("POST")
	r.HandleFunc("/analytics", h.DashboardHandler).Methods("GET", "POST")
	r.HandleFunc("/analytics.json", h.DocumentHandler).Methods("GET", "POST")
	r.HandleFunc("/analytics/chart.svg", h.ChartHandler).Methods("GET", "POST")
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	return h, r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if method == http.MethodPost && strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestTrackSingleEvent(t *testing.T) {
	h, r := newTestHandlers(t, nil)

	resp := do(r, http.MethodPost, "/track", `{"type":"pageview"}`)
	require.Equal(t, http.StatusAccepted, resp.Code)

	var body trackResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Accepted)
	assert.Equal(t, int64(1), h.Counter.Snapshot().TotalPageviews)
	assert.NotEmpty(t, resp.Result().Cookies(), "session cookie issued")
}

func TestTrackBatchWithInvalidEvents(t *testing.T) {
	h, r := newTestHandlers(t, nil)

	resp := do(r, http.MethodPost, "/track", `{"events":[
		{"type":"script_run","duration_seconds":0.5},
		{"type":"widget","widget":"slider","value":"3"},
		{"type":"widget"},
		{"type":"click"}
	]}`)
	require.Equal(t, http.StatusAccepted, resp.Code)

	var body trackResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Accepted)
	assert.Equal(t, 2, body.Rejected)
	assert.Len(t, body.Errors, 2)

	snap := h.Counter.Snapshot()
	assert.Equal(t, int64(1), snap.TotalScriptRuns)
	assert.Equal(t, int64(1), snap.Widgets["slider"])
}

func TestTrackRejectsGarbage(t *testing.T) {
	_, r := newTestHandlers(t, nil)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/track", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/track", `{"type":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/track", ``).Code)
}

type recordingEnqueuer struct {
	mu     sync.Mutex
	events []models.Event
}

func (e *recordingEnqueuer) Enqueue(evt models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
}

func TestTrackGoesThroughBatcher(t *testing.T) {
	h, r := newTestHandlers(t, nil)
	q := &recordingEnqueuer{}
	h.Events = q

	req := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(`{"type":"widget","widget":"w","value":"a"}`))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "tab-1"})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Len(t, q.events, 1)
	assert.Equal(t, "tab-1", q.events[0].SessionID)
	assert.False(t, q.events[0].Timestamp.IsZero())
	assert.Zero(t, h.Counter.Snapshot().Widgets["w"], "counter is only fed by the batcher")
}

func TestDashboardWithoutPassword(t *testing.T) {
	h, r := newTestHandlers(t, nil)
	require.NoError(t, h.Counter.Record(models.Event{Type: models.EventPageview}))

	resp := do(r, http.MethodGet, "/analytics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Body.String(), "Total: 1 pageviews, 0 script runs")
}

func TestDashboardGate(t *testing.T) {
	_, r := newTestHandlers(t, strptr("letmein"))

	pending := do(r, http.MethodGet, "/analytics", "")
	assert.Contains(t, pending.Body.String(), `type="password"`)
	assert.NotContains(t, pending.Body.String(), "Total:")

	form := url.Values{"password": {"wrong"}}.Encode()
	rejected := do(r, http.MethodPost, "/analytics", form)
	assert.Contains(t, rejected.Body.String(), "Nope, that&#39;s not correct")
	assert.NotContains(t, rejected.Body.String(), "Total:")

	form = url.Values{"password": {"letmein"}}.Encode()
	unlocked := do(r, http.MethodPost, "/analytics", form)
	assert.Contains(t, unlocked.Body.String(), "Total: 0 pageviews, 0 script runs")
}

func TestDocumentJSONHidesReportWhenLocked(t *testing.T) {
	_, r := newTestHandlers(t, strptr("letmein"))

	var doc struct {
		Gate   string                   `json:"gate"`
		Blocks []map[string]interface{} `json:"blocks"`
	}
	resp := do(r, http.MethodGet, "/analytics.json?password=nope", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	assert.Equal(t, "rejected", doc.Gate)
	for _, b := range doc.Blocks {
		assert.NotEqual(t, "line_chart", b["type"])
		assert.NotEqual(t, "key_value_table", b["type"])
	}

	resp = do(r, http.MethodGet, "/analytics.json?password=letmein", "")
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &doc))
	assert.Equal(t, "unlocked", doc.Gate)
}

func TestChartRequiresPassword(t *testing.T) {
	_, r := newTestHandlers(t, strptr("letmein"))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/analytics/chart.svg", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/analytics/chart.svg?password=x", "").Code)
}

func TestChartEmpty(t *testing.T) {
	_, r := newTestHandlers(t, nil)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/analytics/chart.svg", "").Code)
}

func TestChartIsCached(t *testing.T) {
	h, r := newTestHandlers(t, nil)
	charts, err := cache.NewBigCacheStore(time.Minute)
	require.NoError(t, err)
	h.Charts = charts
	require.NoError(t, h.Counter.Record(models.Event{Type: models.EventPageview}))

	first := do(r, http.MethodGet, "/analytics/chart.svg", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "image/svg+xml", first.Header().Get("Content-Type"))
	assert.Contains(t, first.Body.String(), "<svg")

	second := do(r, http.MethodGet, "/analytics/chart.svg", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	require.NoError(t, h.Counter.Record(models.Event{Type: models.EventPageview}))
	third := do(r, http.MethodGet, "/analytics/chart.svg", "")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"), "new counts change the key")
}

func TestHealth(t *testing.T) {
	h, r := newTestHandlers(t, nil)

	resp := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	db, err := config.InitDB(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	h.DB = db

	resp = do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestTrackRejectsStaleEventBeforeQueueing(t *testing.T) {
	h, r := newTestHandlers(t, nil)
	q := &recordingEnqueuer{}
	h.Events = q

	resp := do(r, http.MethodPost, "/track", `{"events":[
		{"type":"pageview","timestamp":"2001-01-01T00:00:00Z"},
		{"type":"pageview"}
	]}`)
	require.Equal(t, http.StatusAccepted, resp.Code)

	var body trackResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Accepted)
	assert.Equal(t, 1, body.Rejected)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "older than the backfill window")
	assert.Len(t, q.events, 1)

	resp = do(r, http.MethodPost, "/track", `{"type":"pageview","timestamp":"2001-01-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestResetHandler(t *testing.T) {
	h, r := newTestHandlers(t, strptr("letmein"))
	r.HandleFunc("/analytics/reset", h.ResetHandler).Methods("POST")
	charts, err := cache.NewBigCacheStore(time.Minute)
	require.NoError(t, err)
	h.Charts = charts
	resets := 0
	h.OnReset = func() { resets++ }

	require.NoError(t, h.Counter.Record(models.Event{Type: models.EventPageview}))
	cached := do(r, http.MethodGet, "/analytics/chart.svg?password=letmein", "")
	require.Equal(t, http.StatusOK, cached.Code)
	key, err := cache.ChartKey(h.Counter.Snapshot().PerDay, h.ChartWidth, h.ChartHeight)
	require.NoError(t, err)
	_, err = charts.Get(key)
	require.NoError(t, err)

	wrong := do(r, http.MethodPost, "/analytics/reset", url.Values{"password": {"nope"}}.Encode())
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, int64(1), h.Counter.Snapshot().TotalPageviews)

	ok := do(r, http.MethodPost, "/analytics/reset", url.Values{"password": {"letmein"}}.Encode())
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Zero(t, h.Counter.Snapshot().TotalPageviews)
	assert.Equal(t, 1, resets)
	_, err = charts.Get(key)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestResetNeedsPassword(t *testing.T) {
	h, r := newTestHandlers(t, nil)
	r.HandleFunc("/analytics/reset", h.ResetHandler).Methods("POST")
	require.NoError(t, h.Counter.Record(models.Event{Type: models.EventPageview}))

	resp := do(r, http.MethodPost, "/analytics/reset", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, int64(1), h.Counter.Snapshot().TotalPageviews)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"streamlit-analytics/logger"
	"streamlit-analytics/metrics"
	"streamlit-analytics/models"
	"streamlit-analytics/utils"
)

const (
	maxTrackBody  = 1 << 20
	sessionCookie = "streamlit_analytics_session"
)

// trackResponse counts events taken in. With a batcher in front of the
// counter, accepted means queued after passing Counter.Check.
type trackResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// TrackHandler accepts a single event or {"events": [...]}.
func (h *Handlers) TrackHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTrackBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	session := ""
	resp := trackResponse{}
	for i, evt := range events {
		if err := h.Counter.Check(evt); err != nil {
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("event %d: %v", i, err))
			continue
		}
		if evt.SessionID == "" {
			if session == "" {
				session = sessionID(w, r)
			}
			evt.SessionID = session
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}

		if h.Events != nil {
			h.Events.Enqueue(evt)
		} else if err := h.Counter.Record(evt); err != nil {
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("event %d: %v", i, err))
			continue
		}
		metrics.EventRecorded(string(evt.Type))
		resp.Accepted++
	}
	metrics.EventsRejected(resp.Rejected)

	if resp.Accepted == 0 {
		logger.Log.WithField("errors", resp.Errors).Debug("rejected tracking payload")
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func decodeEvents(body []byte) ([]models.Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	var batch struct {
		Events []models.Event `json:"events"`
	}
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, err
	}
	if batch.Events != nil {
		return batch.Events, nil
	}

	var evt models.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	return []models.Event{evt}, nil
}

// sessionID returns the caller's session from its cookie, issuing one when
// missing so widget state survives between requests.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := utils.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

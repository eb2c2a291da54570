// Package tracker aggregates tracking events into a counts snapshot.
package tracker

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"streamlit-analytics/models"
)

// MaxBackfillDays bounds how far in the past an event may be dated, counted
// from today and from the first recorded day.
const MaxBackfillDays = 366

var ErrStaleEvent = errors.New("event is older than the backfill window")

const (
	DefaultSessionTTL = 30 * time.Minute
	sessionCleanup    = 5 * time.Minute
)

// Counter is a concurrency-safe in-memory aggregator.
type Counter struct {
	mu       sync.Mutex
	now      func() time.Time
	counts   models.CountsSnapshot
	sessions *gocache.Cache // session + widget -> last seen value
}

type Option func(*Counter)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) { c.now = now }
}

// WithSessionTTL sets how long widget state of an idle session is remembered.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Counter) { c.sessions = gocache.New(ttl, sessionCleanup) }
}

func New(opts ...Option) *Counter {
	c := &Counter{
		now:      time.Now,
		counts:   models.CountsSnapshot{Widgets: map[string]int64{}},
		sessions: gocache.New(DefaultSessionTTL, sessionCleanup),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports whether Record would accept evt, without recording it.
// The day window is only known at record time, so an event that passes Check
// can still fail later when it predates a loaded history by more than
// MaxBackfillDays.
func (c *Counter) Check(evt models.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	_, err := c.eventTime(evt)
	return err
}

// eventTime clamps future or missing timestamps to now and rejects events
// older than the backfill window.
func (c *Counter) eventTime(evt models.Event) (time.Time, error) {
	now := c.now()
	ts := evt.Timestamp
	if ts.IsZero() || ts.After(now) {
		return now, nil
	}
	if models.Truncate(ts).Before(models.Truncate(now).AddDate(0, 0, -MaxBackfillDays)) {
		return time.Time{}, ErrStaleEvent
	}
	return ts, nil
}

// Record applies a single event.
func (c *Counter) Record(evt models.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordLocked(evt)
}

// RecordAll applies every valid event and returns how many were recorded
// together with the joined errors of the rejected ones.
func (c *Counter) RecordAll(events []models.Event) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	recorded := 0
	for i, evt := range events {
		err := evt.Validate()
		if err == nil {
			err = c.recordLocked(evt)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i, err))
			continue
		}
		recorded++
	}
	return recorded, errors.Join(errs...)
}

func (c *Counter) recordLocked(evt models.Event) error {
	ts, err := c.eventTime(evt)
	if err != nil {
		return err
	}

	switch evt.Type {
	case models.EventPageview:
		d, err := c.dayLocked(ts)
		if err != nil {
			return err
		}
		d.Pageviews++
		c.counts.TotalPageviews++
		if c.counts.FirstPageview.IsZero() || ts.Before(c.counts.FirstPageview) {
			c.counts.FirstPageview = ts.UTC()
		}
	case models.EventScriptRun:
		d, err := c.dayLocked(ts)
		if err != nil {
			return err
		}
		d.ScriptRuns++
		c.counts.TotalScriptRuns++
		c.counts.TotalTimeSeconds += evt.DurationSeconds
	case models.EventWidget:
		if c.changedLocked(evt) {
			c.counts.Widgets[evt.Widget]++
		}
	}
	return nil
}

// changedLocked reports whether a widget event is a state change for its
// session. Events without a value (buttons) always count.
func (c *Counter) changedLocked(evt models.Event) bool {
	if evt.Value == "" {
		return true
	}
	key := evt.SessionID + "\x00" + evt.Widget
	if prev, ok := c.sessions.Get(key); ok && prev.(string) == evt.Value {
		c.sessions.SetDefault(key, evt.Value)
		return false
	}
	c.sessions.SetDefault(key, evt.Value)
	return true
}

// dayLocked returns the entry for the day containing t, growing the series so
// it stays contiguous.
func (c *Counter) dayLocked(t time.Time) (*models.DayCount, error) {
	day := models.Truncate(t)
	series := c.counts.PerDay
	if len(series) == 0 {
		c.counts.PerDay = models.DailySeries{{Day: day}}
		return &c.counts.PerDay[0], nil
	}

	first, last := series[0].Day, series[len(series)-1].Day
	switch {
	case day.After(last):
		for d := last.AddDate(0, 0, 1); !d.After(day); d = d.AddDate(0, 0, 1) {
			series = append(series, models.DayCount{Day: d})
		}
		c.counts.PerDay = series
		return &c.counts.PerDay[len(series)-1], nil
	case day.Before(first):
		if first.Sub(day) > MaxBackfillDays*24*time.Hour {
			return nil, ErrStaleEvent
		}
		var gap models.DailySeries
		for d := day; d.Before(first); d = d.AddDate(0, 0, 1) {
			gap = append(gap, models.DayCount{Day: d})
		}
		c.counts.PerDay = append(gap, series...)
		return &c.counts.PerDay[0], nil
	default:
		idx := int(day.Sub(first) / (24 * time.Hour))
		return &c.counts.PerDay[idx], nil
	}
}

// Snapshot returns a deep copy of the current counts.
func (c *Counter) Snapshot() models.CountsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts.Clone()
}

// Load replaces the counts with a persisted snapshot. Gaps in its per-day
// series are filled with zero days; duplicate days are summed.
func (c *Counter) Load(snap models.CountsSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	days := append(models.DailySeries(nil), snap.PerDay...)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })

	prev := c.counts
	c.counts = snap.Clone()
	c.counts.PerDay = nil
	if c.counts.Widgets == nil {
		c.counts.Widgets = map[string]int64{}
	}
	for _, d := range days {
		if d.Pageviews < 0 || d.ScriptRuns < 0 {
			c.counts = prev
			return fmt.Errorf("negative counts on %s", d.Day.Format(models.DayLayout))
		}
		entry, err := c.dayLocked(d.Day)
		if err != nil {
			c.counts = prev
			return err
		}
		entry.Pageviews += d.Pageviews
		entry.ScriptRuns += d.ScriptRuns
	}
	return nil
}

// Reset drops every counter and all session state.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = models.CountsSnapshot{Widgets: map[string]int64{}}
	c.sessions.Flush()
}

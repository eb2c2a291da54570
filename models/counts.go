package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DayLayout is the wire format of a per-day key.
const DayLayout = "2006-01-02"

var ErrColumnMismatch = errors.New("per_day columns have different lengths")

// DayCount holds the counters of a single calendar day.
type DayCount struct {
	Day        time.Time `json:"days"`
	Pageviews  int64     `json:"pageviews"`
	ScriptRuns int64     `json:"script_runs"`
}

// DailySeries is the chronological per-day breakdown of a snapshot.
type DailySeries []DayCount

// CountsSnapshot is the aggregated, read-only view handed to the dashboard.
type CountsSnapshot struct {
	TotalPageviews   int64            `json:"total_pageviews"`
	TotalScriptRuns  int64            `json:"total_script_runs"`
	TotalTimeSeconds float64          `json:"total_time_seconds"`
	FirstPageview    time.Time        `json:"first_pageview"`
	PerDay           DailySeries      `json:"per_day"`
	Widgets          map[string]int64 `json:"widgets"`
}

// Clone returns a deep copy so callers can hand snapshots out freely.
func (c CountsSnapshot) Clone() CountsSnapshot {
	out := c
	out.PerDay = append(DailySeries(nil), c.PerDay...)
	out.Widgets = make(map[string]int64, len(c.Widgets))
	for k, v := range c.Widgets {
		out.Widgets[k] = v
	}
	return out
}

// MaxPageviews returns the largest daily pageview count, 0 for an empty series.
func (s DailySeries) MaxPageviews() int64 {
	var max int64
	for _, d := range s {
		if d.Pageviews > max {
			max = d.Pageviews
		}
	}
	return max
}

// columnarSeries is the on-disk shape of streamlit-analytics counts files:
// three parallel arrays instead of a list of records.
type columnarSeries struct {
	Days       []string `json:"days"`
	Pageviews  []int64  `json:"pageviews"`
	ScriptRuns []int64  `json:"script_runs"`
}

// MarshalJSON writes the columnar shape.
func (s DailySeries) MarshalJSON() ([]byte, error) {
	col := columnarSeries{
		Days:       make([]string, 0, len(s)),
		Pageviews:  make([]int64, 0, len(s)),
		ScriptRuns: make([]int64, 0, len(s)),
	}
	for _, d := range s {
		col.Days = append(col.Days, d.Day.Format(DayLayout))
		col.Pageviews = append(col.Pageviews, d.Pageviews)
		col.ScriptRuns = append(col.ScriptRuns, d.ScriptRuns)
	}
	return json.Marshal(col)
}

// UnmarshalJSON accepts the columnar shape as well as a list of records.
func (s *DailySeries) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var records []struct {
			Day        string `json:"days"`
			Pageviews  int64  `json:"pageviews"`
			ScriptRuns int64  `json:"script_runs"`
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return err
		}
		out := make(DailySeries, 0, len(records))
		for _, r := range records {
			day, err := ParseDay(r.Day)
			if err != nil {
				return err
			}
			out = append(out, DayCount{Day: day, Pageviews: r.Pageviews, ScriptRuns: r.ScriptRuns})
		}
		*s = out
		return nil
	}

	var col columnarSeries
	if err := json.Unmarshal(data, &col); err != nil {
		return err
	}
	if len(col.Days) != len(col.Pageviews) || len(col.Days) != len(col.ScriptRuns) {
		return ErrColumnMismatch
	}
	out := make(DailySeries, 0, len(col.Days))
	for i, raw := range col.Days {
		day, err := ParseDay(raw)
		if err != nil {
			return err
		}
		out = append(out, DayCount{Day: day, Pageviews: col.Pageviews[i], ScriptRuns: col.ScriptRuns[i]})
	}
	*s = out
	return nil
}

// ParseDay parses a YYYY-MM-DD key into a UTC midnight.
func ParseDay(raw string) (time.Time, error) {
	day, err := time.Parse(DayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", raw, err)
	}
	return day, nil
}

// Truncate returns the UTC calendar day containing t.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

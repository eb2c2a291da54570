package batcher

import "streamlit-analytics/models"

// FlushFunc receives every flushed batch. The slice is owned by the callee.
type FlushFunc func(events []models.Event)

// AggregatedCount maps event keys (see models.Event.Key) to occurrences.
type AggregatedCount map[string]int

// Aggregate summarises a batch for logging.
func Aggregate(events []models.Event) AggregatedCount {
	agg := make(AggregatedCount)
	for _, e := range events {
		agg[e.Key()]++
	}
	return agg
}

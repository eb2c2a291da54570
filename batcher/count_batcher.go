package batcher

import (
	"sync"

	"streamlit-analytics/logger"
	"streamlit-analytics/models"
)

// CountBatcher collects events and flushes whenever count ≥ threshold.
type CountBatcher struct {
	mu        sync.Mutex
	events    []models.Event
	threshold int
	flush     FlushFunc
}

// NewCountBatcher returns a CountBatcher that flushes when
// len(events) >= threshold. Pass threshold=0 to flush only on Flush().
func NewCountBatcher(threshold int, flush FlushFunc) *CountBatcher {
	return &CountBatcher{
		events:    make([]models.Event, 0, threshold),
		threshold: threshold,
		flush:     flush,
	}
}

// Enqueue adds an event and triggers flush if the threshold is reached.
func (b *CountBatcher) Enqueue(evt models.Event) {
	b.mu.Lock()
	b.events = append(b.events, evt)
	var batch []models.Event
	if b.threshold > 0 && len(b.events) >= b.threshold {
		batch = b.takeLocked()
	}
	b.mu.Unlock()

	b.deliver(batch)
}

// Flush hands over whatever is buffered.
func (b *CountBatcher) Flush() {
	b.mu.Lock()
	batch := b.takeLocked()
	b.mu.Unlock()

	b.deliver(batch)
}

// Stop flushes the remaining events.
func (b *CountBatcher) Stop() {
	b.Flush()
}

// takeLocked assumes b.mu is held.
func (b *CountBatcher) takeLocked() []models.Event {
	if len(b.events) == 0 {
		return nil
	}
	batch := b.events
	b.events = make([]models.Event, 0, b.threshold)
	return batch
}

func (b *CountBatcher) deliver(batch []models.Event) {
	if len(batch) == 0 {
		return
	}
	logger.Log.WithField("batch", Aggregate(batch)).Debugf("CountBatcher flush: %d events", len(batch))
	b.flush(batch)
}

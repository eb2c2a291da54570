package batcher

import (
	"sync"
	"time"

	"streamlit-analytics/logger"
	"streamlit-analytics/models"
)

// TimeBatcher collects events and flushes every flushInterval.
type TimeBatcher struct {
	mu            sync.Mutex
	events        []models.Event
	flushInterval time.Duration
	flush         FlushFunc
	stopCh        chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
}

// NewTimeBatcher returns a TimeBatcher that flushes on the given interval.
// Pass flushInterval=0 to disable time‑based flushing.
func NewTimeBatcher(flushInterval time.Duration, flush FlushFunc) *TimeBatcher {
	return &TimeBatcher{
		events:        []models.Event{},
		flushInterval: flushInterval,
		flush:         flush,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the background ticker. Call Stop() to end it.
func (b *TimeBatcher) Start() {
	if b.flushInterval <= 0 {
		close(b.done)
		return
	}
	ticker := time.NewTicker(b.flushInterval)
	go func() {
		defer close(b.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Flush()
			case <-b.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the background ticker and flushes what is left.
// Start must have been called.
func (b *TimeBatcher) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.done
	b.Flush()
}

// Enqueue adds an event; it will be included in the next flush.
func (b *TimeBatcher) Enqueue(evt models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

// Flush hands over whatever is buffered.
func (b *TimeBatcher) Flush() {
	b.mu.Lock()
	batch := b.events
	b.events = []models.Event{}
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	logger.Log.WithField("batch", Aggregate(batch)).Debugf("TimeBatcher flush: %d events", len(batch))
	b.flush(batch)
}

package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskQueueProcessing(t *testing.T) {
	w := NewWorker(10)
	w.Start(context.Background())

	var processed atomic.Int32
	for i := 0; i < 5; i++ {
		assert.NoError(t, w.Enqueue("count", func(context.Context) error {
			processed.Add(1)
			return nil
		}))
	}
	assert.NoError(t, w.Enqueue("fail", func(context.Context) error {
		return errors.New("boom")
	}))

	w.Stop()
	assert.Equal(t, int32(5), processed.Load())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	w := NewWorker(1)
	noop := func(context.Context) error { return nil }

	assert.NoError(t, w.Enqueue("first", noop))
	assert.ErrorIs(t, w.Enqueue("second", noop), ErrQueueFull)

	w.Start(context.Background())
	w.Stop()
}

func TestEnqueueAfterStop(t *testing.T) {
	w := NewWorker(1)
	w.Start(context.Background())
	w.Stop()
	w.Stop()
	assert.ErrorIs(t, w.Enqueue("late", func(context.Context) error { return nil }), ErrQueueClosed)
}

package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/getsentry/sentry-go"

	"streamlit-analytics/logger"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrQueueClosed = errors.New("task queue is stopped")
)

// Task is a unit of background work, usually persisting a snapshot.
type Task func(ctx context.Context) error

type namedTask struct {
	name string
	run  Task
}

// Worker runs queued tasks one at a time on a background goroutine.
type Worker struct {
	tasks  chan namedTask
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewWorker(size int) *Worker {
	if size <= 0 {
		size = 100
	}
	return &Worker{tasks: make(chan namedTask, size)}
}

// Start launches the goroutine that processes queued tasks until Stop.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for t := range w.tasks {
			if err := t.run(ctx); err != nil {
				logger.Log.WithError(err).WithField("task", t.name).Error("background task failed")
				sentry.CaptureException(err)
			}
		}
	}()
}

// Enqueue never blocks; when the buffer is full the task is dropped.
func (w *Worker) Enqueue(name string, task Task) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrQueueClosed
	}
	select {
	case w.tasks <- namedTask{name: name, run: task}:
		return nil
	default:
		logger.Log.WithField("task", name).Warn("task queue full, dropping task")
		return ErrQueueFull
	}
}

// Stop closes the queue and waits until every already queued task ran.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.tasks)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	seen  []TransitionJob
	fails int
	done  chan struct{}
}

func (r *recorder) handle(_ context.Context, job TransitionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, job)
	if r.fails > 0 {
		r.fails--
		return errors.New("mirror still down")
	}
	select {
	case r.done <- struct{}{}:
	default:
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestQueueProcessesJobs(t *testing.T) {
	rec := &recorder{done: make(chan struct{}, 1)}
	q := NewQueue(rec.handle, QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(TransitionJob{BudgetID: "Q-100", Status: "Approved"}))

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
	require.Equal(t, 1, rec.count())
	require.Equal(t, "Q-100", rec.seen[0].BudgetID)
	require.False(t, rec.seen[0].Enqueued.IsZero())
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	rec := &recorder{fails: 2, done: make(chan struct{}, 1)}
	q := NewQueue(rec.handle, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(TransitionJob{BudgetID: "Q-100", Status: "Finished"}))

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("job was not retried to completion")
	}
	require.Equal(t, 3, rec.count())
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue(func(context.Context, TransitionJob) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(TransitionJob{BudgetID: "Q-100"}))
}

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{}, 3)

	q := NewQueue("test", func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	attempts := make(chan int, 10)
	gaveUp := make(chan Job, 1)

	q := NewQueue("retry", func(_ context.Context, job Job) error {
		attempts <- job.Attempt
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnGiveUp:   func(j Job, _ error) { gaveUp <- j },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))

	select {
	case job := <-gaveUp:
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job never gave up")
	}
	assert.Equal(t, []int{0, 1, 2}, []int{<-attempts, <-attempts, <-attempts})
}

func TestQueueRecoversFromPanics(t *testing.T) {
	gaveUp := make(chan error, 1)
	q := NewQueue("panic", func(context.Context, Job) error {
		panic("bad input")
	}, QueueConfig{OnGiveUp: func(_ Job, err error) { gaveUp <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "p"}))
	select {
	case err := <-gaveUp:
		assert.Contains(t, err.Error(), "bad input")
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not converted to a failure")
	}
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "x"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "y"}), ErrQueueClosed)
}

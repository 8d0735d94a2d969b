package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestQueueProcessesJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	var handled int32
	done := make(chan string, 2)
	q := NewQueue("notify", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "absence"}))
	require.NoError(t, q.Enqueue(Job{ID: "fixed", Type: "absence"}))

	ids := []string{waitFor(t, done), waitFor(t, done)}
	q.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&handled))
	assert.Contains(t, ids, "fixed")
	for _, id := range ids {
		assert.NotEmpty(t, id)
	}
}

func TestQueueNoRetry(t *testing.T) {
	defer goleak.VerifyNone(t)

	var attempts int32
	q := NewQueue("notify", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("gateway down")
	}, QueueConfig{NoRetry: true, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "absence"}))
	time.Sleep(50 * time.Millisecond)
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var attempts int32
	q := NewQueue("notify", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("flaky")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "absence"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
	q.Stop()
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("notify", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
}

func TestTryEnqueueReportsFullQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan string, 4)
	release := make(chan struct{})
	q := NewQueue("notify", func(ctx context.Context, job Job) error {
		started <- job.ID
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 2, NoRetry: true})

	q.Start(context.Background())
	require.NoError(t, q.TryEnqueue(Job{ID: "busy"}))
	assert.Equal(t, "busy", waitFor(t, started))

	require.NoError(t, q.TryEnqueue(Job{}))
	require.NoError(t, q.TryEnqueue(Job{}))

	begin := time.Now()
	err := q.TryEnqueue(Job{})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Less(t, time.Since(begin), 100*time.Millisecond)

	close(release)
	q.Stop()
}

func TestTryEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("notify", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.TryEnqueue(Job{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQueueFull)
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(time.Second):
		t.Fatal("job not processed")
		return ""
	}
}

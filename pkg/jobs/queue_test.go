package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	var processed int32
	q.Register("notify", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "notify"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
	assert.Equal(t, int32(5), atomic.LoadInt32(&processed))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := NewQueue("retry", QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	var attempts int32
	q.Register("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("boom")
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "flaky"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	q := NewQueue("give-up", QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	var attempts int32
	q.Register("broken", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always")
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "broken"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", QueueConfig{})
	q.Register("notify", func(ctx context.Context, job Job) error { return nil })

	err := q.Enqueue(Job{Type: "notify"})
	require.ErrorIs(t, err, ErrQueueStopped)

	q.Start(context.Background())
	require.Error(t, q.Enqueue(Job{Type: "unknown"}))
	q.Stop()

	require.ErrorIs(t, q.Enqueue(Job{Type: "notify"}), ErrQueueStopped)
}

func TestQueueTryEnqueueReportsFull(t *testing.T) {
	q := NewQueue("bounded", QueueConfig{Workers: 1, BufferSize: 1})
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	q.Register("slow", func(ctx context.Context, job Job) error {
		entered <- struct{}{}
		<-release
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{ID: "1", Type: "slow"}))
	<-entered
	require.NoError(t, q.TryEnqueue(Job{ID: "2", Type: "slow"}))
	require.ErrorIs(t, q.TryEnqueue(Job{ID: "3", Type: "slow"}), ErrQueueFull)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
}

package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/logger"
)

func newStartedPool(t *testing.T, workers int) *Pool {
	t.Helper()
	p := New(workers, logger.NewTestLogger())
	p.Start()
	t.Cleanup(p.Stop)
	return p
}

func TestDispatchWaitsForEveryJob(t *testing.T) {
	p := newStartedPool(t, 3)

	var done int32
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = Job{ID: fmt.Sprintf("job-%d", i), Run: func(ctx context.Context) error {
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&done, 1)
			return nil
		}}
	}

	results := p.Dispatch(context.Background(), jobs)

	assert.Equal(t, int32(20), atomic.LoadInt32(&done), "barrier: all jobs finished before Dispatch returned")
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, fmt.Sprintf("job-%d", i), r.JobID)
		assert.NoError(t, r.Err)
	}
}

func TestConcurrencyIsBoundedByWorkers(t *testing.T) {
	p := newStartedPool(t, 2)

	var inFlight, peak int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{ID: fmt.Sprint(i), Run: func(ctx context.Context) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		}}
	}

	p.Dispatch(context.Background(), jobs)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFailuresAndPanicsAreIsolated(t *testing.T) {
	tl := logger.NewTestLogger()
	p := New(2, tl)
	p.Start()
	defer p.Stop()

	boom := errors.New("boom")
	results := p.Dispatch(context.Background(), []Job{
		{ID: "ok", Run: func(context.Context) error { return nil }},
		{ID: "err", Run: func(context.Context) error { return boom }},
		{ID: "panic", Run: func(context.Context) error { panic("bad item") }},
		{ID: "ok2", Run: func(context.Context) error { return nil }},
	})

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	require.Error(t, results[2].Err)
	assert.Contains(t, results[2].Err.Error(), "bad item")
	assert.NoError(t, results[3].Err)
	assert.True(t, tl.HasMessage("Worker recovered from panic"))
}

func TestDispatchCancelledContext(t *testing.T) {
	p := newStartedPool(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	results := p.Dispatch(ctx, []Job{{ID: "a", Run: func(context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}}})

	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&ran))
}

func TestDispatchOnStoppedPool(t *testing.T) {
	p := New(1, nil)
	p.Start()
	p.Stop()
	p.Stop()

	results := p.Dispatch(context.Background(), []Job{{ID: "a", Run: func(context.Context) error { return nil }}})
	require.Error(t, results[0].Err)
	assert.Empty(t, p.Dispatch(context.Background(), nil))
	assert.Equal(t, 1, p.Size())
}

package supervisor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tkscraper/pkg/config"
	"tkscraper/pkg/errors"
	"tkscraper/pkg/logger"
)

func TestStartOnceReturnsRunError(t *testing.T) {
	log := logger.NewTestLogger()
	s := New(config.SupervisorConfig{RunOnce: true, RestartDelay: time.Hour}, log)

	var gotID string
	err := s.Start(context.Background(), func(ctx context.Context, runID string) error {
		gotID = runID
		return fmt.Errorf("search exploded")
	})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSupervisorFatal))
	assert.Contains(t, err.Error(), "search exploded")

	_, parseErr := uuid.Parse(gotID)
	assert.NoError(t, parseErr)
	assert.True(t, log.HasMessage("Pipeline run failed"))
}

func TestStartOnceSuccess(t *testing.T) {
	s := New(config.SupervisorConfig{RunOnce: true}, nil)
	calls := 0
	err := s.Start(context.Background(), func(context.Context, string) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestStartRestartsAfterFailuresAndPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewTestLogger()
	s := New(config.SupervisorConfig{RestartDelay: 4 * time.Hour}, log)

	var delays []time.Duration
	s.waitFor = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	ids := map[string]bool{}
	calls := 0
	err := s.Start(ctx, func(ctx context.Context, runID string) error {
		ids[runID] = true
		calls++
		switch calls {
		case 1:
			return fmt.Errorf("transient")
		case 2:
			panic("nil map")
		case 3:
			return nil
		default:
			cancel()
			return ctx.Err()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, calls)
	assert.Len(t, ids, 4, "each run gets its own id")
	assert.Equal(t, []time.Duration{4 * time.Hour, 4 * time.Hour, 4 * time.Hour}, delays)
	assert.True(t, log.HasMessage("Pipeline run panicked"))
	assert.True(t, log.HasMessage("Pipeline run failed"))
}

func TestStartStopsDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(config.SupervisorConfig{RestartDelay: time.Hour}, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx, func(context.Context, string) error { return nil })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop on cancellation")
	}
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	var runs, failures atomic.Int32

	s, err := New(zaptest.NewLogger(t),
		Job{
			Name:     "tick",
			Interval: 20 * time.Millisecond,
			Run: func(ctx context.Context) error {
				runs.Add(1)
				return nil
			},
		},
		Job{
			Name:     "broken",
			Interval: 20 * time.Millisecond,
			Timeout:  time.Second,
			Run: func(ctx context.Context) error {
				failures.Add(1)
				return errors.New("boom")
			},
		},
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2 && failures.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_JobContextIsCancelledOnShutdown(t *testing.T) {
	started := make(chan struct{})
	var once atomic.Bool

	s, err := New(zaptest.NewLogger(t), Job{
		Name:     "slow",
		Interval: 10 * time.Millisecond,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			if once.CompareAndSwap(false, true) {
				close(started)
			}
			<-ctx.Done()
			return ctx.Err()
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("running job blocked shutdown")
	}
}

func TestNew_RejectsNonPositiveInterval(t *testing.T) {
	_, err := New(zaptest.NewLogger(t), Job{Name: "bad", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

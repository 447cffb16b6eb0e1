package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorRunsImmediatelyAndOnInterval(t *testing.T) {
	var runs atomic.Int32
	m := New("test", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	require.NoError(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	m.Stop()
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "task ran after Stop returned")
}

func TestMonitorReportsFailures(t *testing.T) {
	boom := errors.New("prune failed")
	m := New("test", time.Hour, func(context.Context) error { return boom }, nil)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	select {
	case err := <-m.Failures():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("expected a failure notification")
	}
}

func TestMonitorDropsFailuresWhenFull(t *testing.T) {
	var runs atomic.Int32
	m := New("test", time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("still failing")
	}, nil)

	require.NoError(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool { return runs.Load() > failureBuffer+5 }, 2*time.Second, time.Millisecond)
	m.Stop()

	assert.Len(t, m.Failures(), failureBuffer)
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	m := New("test", time.Millisecond, func(context.Context) error { return nil }, nil)
	require.NoError(t, m.Start(context.Background()))

	m.Stop()
	m.Stop()

	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
}

func TestMonitorStopBeforeStart(t *testing.T) {
	var runs atomic.Int32
	m := New("test", time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	m.Stop()
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
	assert.Zero(t, runs.Load())
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New("test", time.Millisecond, func(context.Context) error { return nil }, nil)
	require.NoError(t, m.Start(ctx))

	cancel()

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancellation")
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	m := New("test", 0, nil, nil)
	assert.Equal(t, time.Minute, m.interval)
}

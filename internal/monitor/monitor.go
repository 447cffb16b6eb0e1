// Package monitor runs a periodic background task with an explicit
// lifecycle. The server uses it to prune expired auth sessions.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/room-access/internal/logging"
)

// failureBuffer bounds the failure channel. Failures beyond it are dropped.
const failureBuffer = 16

// ErrAlreadyStarted is returned by Start on a monitor that is running or stopped.
var ErrAlreadyStarted = errors.New("monitor: already started")

// Task is the unit of work run on every tick.
type Task func(ctx context.Context) error

// Monitor invokes a Task at a fixed interval until stopped.
type Monitor struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger

	failures chan error
	stop     chan struct{}
	done     chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// New builds a monitor. It does nothing until Start is called.
func New(name string, interval time.Duration, task Task, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logging.Default(logger).With(zap.String("monitor", name)),
		failures: make(chan error, failureBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Failures reports task errors. The channel is never closed.
func (m *Monitor) Failures() <-chan error {
	return m.failures
}

// Start launches the loop. The task runs once immediately and then on every
// interval until Stop is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	m.startOnce.Do(func() {
		err = nil
		m.logger.Info("starting monitor", zap.Duration("interval", m.interval))
		go m.run(ctx)
	})
	return err
}

// Stop ends the loop and waits for an in-flight task to return. It is safe
// to call more than once and before Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.startOnce.Do(func() {
		// Never started: mark done so later Start calls fail and Stop returns.
		close(m.done)
	})
	<-m.done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	m.tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tick(ctx)
		case <-m.stop:
			m.logger.Info("monitor stopped")
			return
		case <-ctx.Done():
			m.logger.Info("monitor cancelled")
			return
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if m.task == nil {
		return
	}
	select {
	case <-m.stop:
		return
	default:
	}

	if err := m.task(ctx); err != nil {
		m.logger.Warn("monitor task failed", zap.Error(err))
		select {
		case m.failures <- err:
		default:
			m.logger.Warn("dropping monitor failure, channel full")
		}
	}
}

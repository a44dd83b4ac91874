package binding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"dama/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Supervisor owns the background tasks of every binding. Tasks run until
// Shutdown cancels their context; a failing task is logged and does not stop
// the others.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	logger *logging.Logger
	active atomic.Int64

	mutex    sync.Mutex
	shutdown bool
}

func NewSupervisor(parent context.Context, logger *logging.Logger) *Supervisor {
	if parent == nil {
		parent = context.Background()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Component("supervisor"),
	}
}

// Context is cancelled when the supervisor shuts down.
func (s *Supervisor) Context() context.Context {
	return s.ctx
}

// Go starts task. It is a no-op after Shutdown.
func (s *Supervisor) Go(name string, task func(ctx context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.shutdown {
		return
	}
	s.active.Add(1)
	s.group.Go(func() error {
		defer s.active.Add(-1)
		err := task(s.ctx)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Debug("task stopped", map[string]string{"task": name})
			return nil
		}
		s.logger.Warn("task failed", map[string]string{
			"task":             name,
			logging.FieldError: err.Error(),
		})
		return err
	})
}

// Active reports the number of running tasks.
func (s *Supervisor) Active() int {
	return int(s.active.Load())
}

// Shutdown cancels every task and waits for them to return. It returns the
// first task failure, if any.
func (s *Supervisor) Shutdown() error {
	s.mutex.Lock()
	s.shutdown = true
	s.mutex.Unlock()

	s.cancel()
	return s.group.Wait()
}

package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LockPruner drops idle per-document locks
type LockPruner interface {
	PruneLocks() int
}

// LockSweeper periodically prunes idle document locks so memory is
// released even when no new document is touched.
type LockSweeper struct {
	pruner   LockPruner
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewLockSweeper creates a sweeper that runs every interval
func NewLockSweeper(pruner LockPruner, interval time.Duration, logger *zap.Logger) *LockSweeper {
	return &LockSweeper{
		pruner:   pruner,
		interval: interval,
		logger:   logger,
	}
}

// Name returns the worker name
func (s *LockSweeper) Name() string {
	return "lock-sweeper"
}

// Start begins sweeping until ctx is cancelled or Stop is called
func (s *LockSweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("lock sweeper: %w", ErrAlreadyRunning)
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.run(ctx, s.stopCh)
	return nil
}

func (s *LockSweeper) run(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if removed := s.pruner.PruneLocks(); removed > 0 {
				s.logger.Debug("Pruned idle document locks", zap.Int("removed", removed))
			}
		}
	}
}

// Stop halts the sweeper and waits for the loop to exit
func (s *LockSweeper) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

package worker

import (
	"context"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/go-redsync/redsync/v4"
	"go.uber.org/zap"
)

const sweepLockName = "flightdesk:lock:completion-sweep"

type Completer interface {
	CompleteArrivedBookings(ctx context.Context) ([]domain.Booking, error)
}

// Lock is a distributed mutex; *redsync.Mutex satisfies it.
type Lock interface {
	LockContext(ctx context.Context) error
	UnlockContext(ctx context.Context) (bool, error)
}

// RedisLock returns a lock factory backed by redsync. A held lock is not waited for.
func RedisLock(rs *redsync.Redsync, ttl time.Duration) func() Lock {
	return func() Lock {
		return rs.NewMutex(sweepLockName, redsync.WithExpiry(ttl), redsync.WithTries(1))
	}
}

// Sweeper periodically moves confirmed bookings of landed flights to completed.
// Only the instance holding the lock sweeps on a given tick.
type Sweeper struct {
	completer Completer
	newLock   func() Lock
	interval  time.Duration
	log       *zap.Logger
}

func NewSweeper(completer Completer, newLock func() Lock, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{completer: completer, newLock: newLock, interval: interval, log: log}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("completion sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce sweeps if the lock is free and reports how many bookings were completed.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if s.newLock != nil {
		lock := s.newLock()
		if err := lock.LockContext(ctx); err != nil {
			s.log.Debug("completion sweep skipped, lock held elsewhere", zap.Error(err))
			return 0, nil
		}
		defer func() {
			if _, err := lock.UnlockContext(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}

	completed, err := s.completer.CompleteArrivedBookings(ctx)
	if err != nil {
		return 0, err
	}
	if len(completed) > 0 {
		s.log.Info("bookings completed", zap.Int("count", len(completed)))
	}
	return len(completed), nil
}

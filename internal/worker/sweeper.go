package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/tasklist-api/internal/repo"
)

// Sweeper периодически удаляет ключи идемпотентности старше ttl
type Sweeper struct {
	purger   repo.KeyPurger
	logger   *zap.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSweeper(purger repo.KeyPurger, logger *zap.Logger, interval, ttl time.Duration) *Sweeper {
	return &Sweeper{
		purger:   purger,
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting idempotency key sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("ttl", s.ttl),
	)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop дожидается завершения текущего прохода. Повторный вызов безопасен
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping idempotency key sweeper...")
		close(s.stop)
	})
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)
	n, err := s.purger.PurgeIdempotencyKeys(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Purged idempotency keys", zap.Int64("count", n), zap.Time("older_than", cutoff))
	}
	return n, nil
}

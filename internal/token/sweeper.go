package token

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type PurgeRecorder interface {
	RecordTokensPurged(count int64)
}

/* Фоновая очистка просроченных токенов по расписанию cron.
 * Отозванные токены не трогаем даже после истечения, чтобы Validate продолжал отвечать ErrRevoked. */
type Sweeper struct {
	logger   *zap.Logger
	issuer   *Issuer
	recorder PurgeRecorder
	cron     *cron.Cron
	running  atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSweeper(logger *zap.Logger, issuer *Issuer, spec string, recorder PurgeRecorder) (*Sweeper, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		logger:   logger,
		issuer:   issuer,
		recorder: recorder,
		cron:     cron.New(),
		ctx:      ctx,
		cancel:   cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule token cleanup %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Expired token cleanup scheduled")
}

// Stop cancels a running pass and waits for it to finish.
func (s *Sweeper) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Sweeper) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("Token cleanup skipped: previous run is still in progress")
		return
	}
	defer s.running.Store(false)
	if _, err := s.Run(s.ctx); err != nil {
		s.logger.Error("Failed to delete expired tokens", zap.Error(err))
	}
}

// Run performs a single cleanup pass.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := s.issuer.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if s.recorder != nil {
		s.recorder.RecordTokensPurged(deleted)
	}
	s.logger.Debug("Expired tokens have been deleted",
		zap.Int64("count", deleted), zap.Duration("duration", time.Since(start)))
	return deleted, nil
}

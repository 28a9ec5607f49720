package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

// CartSweeper 定期清除過期的訪客購物車
// 只刪沒有會員且已過期的購物車，與進行中的結帳並行也安全
type CartSweeper struct {
	store    db.Store
	interval time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewCartSweeper(store db.Store, interval time.Duration, logger *zerolog.Logger) *CartSweeper {
	return &CartSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *CartSweeper) SweepOnce(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteExpiredGuestCarts(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("expired guest carts swept")
	}
	return deleted, nil
}

// Run 阻塞到 ctx 結束，啟動時先跑一次
func (s *CartSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn().Msg("cart sweeper disabled, interval is not positive")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("failed to sweep guest carts")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

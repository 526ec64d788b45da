package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	postPort "inkwell/internal/ports/post"
)

// TrendingWorker keeps the view-rank ZSET from growing without bound:
// every interval it trims the set down to the keep window.
type TrendingWorker struct {
	Trending postPort.TrendingRepository
	Keep     int64
	Interval time.Duration
	Logger   *zap.Logger
}

func NewTrendingWorker(trending postPort.TrendingRepository, keep int64, interval time.Duration, logger *zap.Logger) *TrendingWorker {
	return &TrendingWorker{
		Trending: trending,
		Keep:     keep,
		Interval: interval,
		Logger:   logger,
	}
}

func (w *TrendingWorker) Run(ctx context.Context) {
	w.Logger.Info("trending worker started",
		zap.Int64("keep", w.Keep), zap.Duration("interval", w.Interval))

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("trending worker stopped")
			return
		case <-ticker.C:
			if err := w.Trending.Trim(ctx, w.Keep); err != nil {
				w.Logger.Warn("could not trim trending ranking", zap.Error(err))
			}
		}
	}
}

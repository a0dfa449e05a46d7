package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultRateRefreshInterval = 30 * time.Second

// RateRefresher periodically reloads the rate table so rates changed by
// other instances become visible.
type RateRefresher struct {
	logger   *zap.Logger
	table    *RateTable
	interval time.Duration
	stopChan chan struct{}
}

// NewRateRefresher creates a refresher; a non-positive interval uses the default.
func NewRateRefresher(logger *zap.Logger, table *RateTable, interval time.Duration) *RateRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultRateRefreshInterval
	}
	return &RateRefresher{
		logger:   logger,
		table:    table,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic refresh.
func (r *RateRefresher) Start() {
	go r.run()
}

// Stop stops the periodic refresh.
func (r *RateRefresher) Stop() {
	close(r.stopChan)
}

func (r *RateRefresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refresh()
		case <-r.stopChan:
			r.logger.Info("rate refresher stopped")
			return
		}
	}
}

func (r *RateRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	if err := r.table.Refresh(ctx); err != nil {
		r.logger.Error("failed to refresh cpm rate table", zap.Error(err))
	}
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

type dealExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type DealExpiryJobParams struct {
	Logger *logger.Logger
	Deals  dealExpirer
}

// NewDealExpiryJob closes ACTIVE deals whose deadline has passed.
func NewDealExpiryJob(params DealExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Deals == nil {
		return nil, fmt.Errorf("deal service required")
	}
	return &dealExpiryJob{logg: params.Logger, deals: params.Deals, now: time.Now}, nil
}

type dealExpiryJob struct {
	logg  *logger.Logger
	deals dealExpirer
	now   func() time.Time
}

func (j *dealExpiryJob) Name() string { return "deal-expiry" }

func (j *dealExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.deals.ExpireOverdue(ctx, now)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        now,
		"deals_expired": expired,
	})
	if err != nil {
		// partial sweeps still report what they closed
		j.logg.Warn(logCtx, "deal_expiry.partial")
		return fmt.Errorf("expire overdue deals: %w", err)
	}
	j.logg.Info(logCtx, "deal_expiry.completed")
	return nil
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"gorm.io/gorm"
)

const outboxRetention = 14 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Outbox    outboxPurger
	Retention time.Duration
}

// NewOutboxRetentionJob purges outbox rows that were published longer than
// Retention ago. Unpublished and parked rows are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = outboxRetention
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		outbox:    params.Outbox,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	outbox    outboxPurger
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.outbox.DeletePublishedBefore(tx, cutoff)
		deleted = n
		return err
	}); err != nil {
		return fmt.Errorf("purge published outbox rows: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox_retention.completed")
	return nil
}

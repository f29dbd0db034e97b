package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/angelmondragon/vendorpool-backend/internal/testdb"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOutboxRetentionJobPurgesOldPublishedRows(t *testing.T) {
	db := testdb.Open(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-30 * 24 * time.Hour)
	recent := now.Add(-time.Hour)

	seed := func(publishedAt *time.Time) uuid.UUID {
		row := models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventDealActivated,
			AggregateType: enums.AggregateDeal,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			PublishedAt:   publishedAt,
		}
		require.NoError(t, db.Create(&row).Error)
		return row.ID
	}
	stale := seed(&old)
	fresh := seed(&recent)
	pending := seed(nil)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger: testLogger(),
		DB:     testdb.TxRunner{DB: db},
		Outbox: outbox.NewRepository(db),
	})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	var ids []uuid.UUID
	require.NoError(t, db.Model(&models.OutboxEvent{}).Pluck("id", &ids).Error)
	require.ElementsMatch(t, []uuid.UUID{fresh, pending}, ids)
	require.NotContains(t, ids, stale)
}

func TestNewOutboxRetentionJobValidation(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: testLogger()})
	require.Error(t, err)
}

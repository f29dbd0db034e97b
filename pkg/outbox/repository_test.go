package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/payloads"
)

func openOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE outbox_dlqs (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`).Error)
	return db
}

func TestEmitWritesEnvelope(t *testing.T) {
	db := openOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	dealID := uuid.New()
	actor := &ActorRef{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventDealStatusChanged,
			AggregateType: enums.AggregateDeal,
			AggregateID:   dealID,
			Actor:         actor,
			Data:          payloads.DealStatusChangedEvent{DealID: dealID, From: enums.DealStatusActive, To: enums.DealStatusPaused},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, CurrentVersion, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, actor.UserID, envelope.Actor.UserID)

	var data payloads.DealStatusChangedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Equal(t, enums.DealStatusPaused, data.To)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	db := openOutboxDB(t)
	svc := NewService(NewRepository(db), nil)
	invoiceID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventInvoiceCreated,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   invoiceID,
		Data:          payloads.InvoiceCreatedEvent{InvoiceID: invoiceID},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := openOutboxDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Add(-time.Minute)

	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, repo.Insert(db, models.OutboxEvent{
			ID:            ids[i],
			EventType:     enums.EventCommitmentCreated,
			AggregateType: enums.AggregateCommitment,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	require.NoError(t, repo.MarkPublishedTx(db, ids[0]))
	require.NoError(t, repo.MarkFailedTx(db, ids[1], errors.New("publish timeout")))
	require.NoError(t, repo.MarkTerminalTx(db, ids[2], errors.New("bad payload"), 3))

	pending, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, ids[1], pending[0].ID)
	require.Equal(t, 1, pending[0].AttemptCount)
	require.Equal(t, "publish timeout", *pending[0].LastError)
}

func TestDLQRepositoryRoundTrip(t *testing.T) {
	db := openOutboxDB(t)
	dlq := NewDLQRepository(db)
	eventID := uuid.New()
	long := strings.Repeat("x", maxLastErrorLen+10)

	require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventDealActivated,
		AggregateType: enums.AggregateDeal,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &long,
		FailedAt:      time.Now().UTC(),
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, *found.ErrorMessage, maxLastErrorLen)

	missing, err := dlq.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

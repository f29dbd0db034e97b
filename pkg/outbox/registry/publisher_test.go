package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	dealID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.DealActivatedEvent{
		DealID:      dealID,
		DealNumber:  7,
		Slug:        "ipad-air-m2",
		Title:       "iPad Air M2",
		RetailPrice: decimal.RequireFromString("599.00"),
		Payout:      decimal.RequireFromString("640.00"),
		PriceType:   enums.PriceTypeAboveRetail,
		ActivatedAt: time.Now().UTC(),
	})

	event := models.OutboxEvent{
		EventType:     enums.EventDealActivated,
		AggregateType: enums.AggregateDeal,
		AggregateID:   dealID,
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "deal-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.DealActivatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.DealID != dealID || !payload.Payout.Equal(decimal.NewFromInt(640)) {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryRoutesCommitmentEvents(t *testing.T) {
	reg := newTestEventRegistry(t)

	for _, eventType := range []enums.OutboxEventType{
		enums.EventCommitmentCreated,
		enums.EventCommitmentStatusChanged,
		enums.EventCommitmentQuantityChanged,
		enums.EventInvoiceCreated,
		enums.EventInvoicePaid,
	} {
		desc, ok := reg.Descriptor(eventType)
		if !ok {
			t.Fatalf("%s not registered", eventType)
		}
		if desc.Topic != "commitment-topic" {
			t.Fatalf("%s routed to %q", eventType, desc.Topic)
		}
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{DealEventsTopic: "deal-topic"}); err == nil {
		t.Fatal("expected error without commitment topic")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{CommitmentEventsTopic: "commitment-topic"}); err == nil {
		t.Fatal("expected error without deal topic")
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("deal_archived"),
		AggregateType: enums.AggregateDeal,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"reason":"none"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventDealActivated,
		AggregateType: enums.AggregateCommitment,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"dealId":"00000000-0000-0000-0000-000000000000"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventDealActivated,
		AggregateType: enums.AggregateDeal,
		AggregateID:   uuid.Nil,
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventDealActivated,
		AggregateType: enums.AggregateDeal,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte("null")),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	cfg := config.PubSubConfig{
		DealEventsTopic:       "deal-topic",
		CommitmentEventsTopic: "commitment-topic",
	}
	reg, err := NewEventRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}

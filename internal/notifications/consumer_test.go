package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/vendorpool-backend/pkg/discord"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubWebhook struct {
	messages []discord.WebhookMessage
	err      error
}

func (s *stubWebhook) PostWebhook(_ context.Context, msg discord.WebhookMessage) error {
	s.messages = append(s.messages, msg)
	return s.err
}

type stubTracker struct {
	seen     map[uuid.UUID]bool
	checkErr error
}

func (s *stubTracker) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	if s.seen == nil {
		s.seen = map[uuid.UUID]bool{}
	}
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: &bytes.Buffer{}})
}

func activatedEnvelope(t *testing.T, event payloads.DealActivatedEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.CurrentVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)
	return raw
}

func sampleEvent() payloads.DealActivatedEvent {
	limit := 5
	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	image := "https://cdn.example.com/switch.png"
	vip := decimal.RequireFromString("345")
	return payloads.DealActivatedEvent{
		DealID:         uuid.New(),
		DealNumber:     42,
		Slug:           "switch-oled",
		Title:          "Switch OLED",
		ImageURL:       &image,
		RetailPrice:    decimal.RequireFromString("349.99"),
		Payout:         decimal.RequireFromString("330"),
		PriceType:      enums.PriceTypeBelowCost,
		LimitPerVendor: &limit,
		IsExclusive:    true,
		ExclusivePrice: &vip,
		Deadline:       &deadline,
		ActivatedAt:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

var activatedAttrs = map[string]string{"event_type": string(enums.EventDealActivated)}

func TestProcessAnnouncesActivatedDeal(t *testing.T) {
	webhook := &stubWebhook{}
	c := newConsumer(webhook, nil, &stubTracker{}, "https://app.vendorpool.io/deals/", testLogger())

	result := c.process(context.Background(), "m-1", activatedAttrs, activatedEnvelope(t, sampleEvent()))
	require.True(t, result.ack)
	require.Len(t, webhook.messages, 1)

	embed := webhook.messages[0].Embeds[0]
	require.Equal(t, "Switch OLED", embed.Title)
	require.Equal(t, "https://app.vendorpool.io/deals/switch-oled", embed.URL)
	require.Equal(t, "https://cdn.example.com/switch.png", embed.Image.URL)
	require.Equal(t, "2026-03-10T12:00:00Z", embed.Timestamp)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	require.Equal(t, "$349.99", values["Retail"])
	require.Equal(t, "$330.00", values["Payout"])
	require.Equal(t, "Below cost", values["Type"])
	require.Equal(t, "5 per vendor", values["Limit"])
	require.Equal(t, "$345.00", values["VIP payout"])
	require.Contains(t, values["Deadline"], "<t:")
}

func TestProcessSkipsDuplicates(t *testing.T) {
	webhook := &stubWebhook{}
	c := newConsumer(webhook, nil, &stubTracker{}, "", testLogger())
	raw := activatedEnvelope(t, sampleEvent())

	require.True(t, c.process(context.Background(), "m-1", activatedAttrs, raw).ack)
	require.True(t, c.process(context.Background(), "m-2", activatedAttrs, raw).ack)
	require.Len(t, webhook.messages, 1)
	require.Empty(t, webhook.messages[0].Embeds[0].URL)
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	webhook := &stubWebhook{}
	c := newConsumer(webhook, nil, &stubTracker{}, "", testLogger())

	result := c.process(context.Background(), "m-1", map[string]string{"event_type": string(enums.EventCommitmentCreated)}, []byte(`{}`))
	require.True(t, result.ack)
	require.Empty(t, webhook.messages)
}

func TestProcessAcksMalformedPayloads(t *testing.T) {
	webhook := &stubWebhook{}
	c := newConsumer(webhook, nil, &stubTracker{}, "", testLogger())

	require.True(t, c.process(context.Background(), "m-1", activatedAttrs, []byte(`not-json`)).ack)
	require.True(t, c.process(context.Background(), "m-2", activatedAttrs, []byte(`{"eventId":"nope","data":{}}`)).ack)
	require.Empty(t, webhook.messages)
}

func TestProcessNacksWhenIdempotencyUnavailable(t *testing.T) {
	webhook := &stubWebhook{}
	c := newConsumer(webhook, nil, &stubTracker{checkErr: errors.New("redis down")}, "", testLogger())

	result := c.process(context.Background(), "m-1", activatedAttrs, activatedEnvelope(t, sampleEvent()))
	require.True(t, result.nack)
	require.Empty(t, webhook.messages)
}

func TestProcessAcksWebhookFailure(t *testing.T) {
	webhook := &stubWebhook{err: errors.New("discord 500")}
	c := newConsumer(webhook, nil, &stubTracker{}, "", testLogger())

	result := c.process(context.Background(), "m-1", activatedAttrs, activatedEnvelope(t, sampleEvent()))
	require.True(t, result.ack)
	require.Len(t, webhook.messages, 1)
}

func TestNewConsumerRequiresDependencies(t *testing.T) {
	_, err := NewConsumer(nil, nil, nil, "", testLogger())
	require.Error(t, err)
}

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/vendorpool-backend/pkg/discord"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/registry"
	"github.com/google/uuid"
)

const dealAnnouncementConsumer = "deal-announcements"

type webhookPoster interface {
	PostWebhook(ctx context.Context, msg discord.WebhookMessage) error
}

type processedTracker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
}

// Consumer announces newly activated deals to the community Discord channel.
type Consumer struct {
	webhook      webhookPoster
	subscription *pubsub.Subscriber
	idempotency  processedTracker
	decoders     *registry.DecoderRegistry
	linkBase     string
	logg         *logger.Logger
}

// NewConsumer builds a deal announcement consumer. linkBase prefixes the deal
// slug in the embed URL and may be empty.
func NewConsumer(webhook webhookPoster, subscription *pubsub.Subscriber, manager *idempotency.Manager, linkBase string, logg *logger.Logger) (*Consumer, error) {
	if webhook == nil {
		return nil, fmt.Errorf("discord webhook required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return newConsumer(webhook, subscription, manager, linkBase, logg), nil
}

func newConsumer(webhook webhookPoster, subscription *pubsub.Subscriber, tracker processedTracker, linkBase string, logg *logger.Logger) *Consumer {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventDealActivated, outbox.CurrentVersion, registry.JSONDecoder[payloads.DealActivatedEvent]())
	return &Consumer{
		webhook:      webhook,
		subscription: subscription,
		idempotency:  tracker,
		decoders:     decoders,
		linkBase:     strings.TrimRight(strings.TrimSpace(linkBase), "/"),
		logg:         logg,
	}
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventDealActivated) {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, dealAnnouncementConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	version := envelope.Version
	if version == 0 {
		version = outbox.CurrentVersion
	}
	decoded, err := c.decoders.Decode(enums.OutboxEventType(eventType), version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	event, ok := decoded.(*payloads.DealActivatedEvent)
	if !ok {
		c.logg.Error(logCtx, "unexpected payload type", fmt.Errorf("got %T", decoded))
		return processResult{ack: true}
	}

	logCtx = c.logg.WithDealID(logCtx, event.DealID.String())
	if err := c.webhook.PostWebhook(ctx, c.announcement(event)); err != nil {
		// best effort: acked so the channel never gets a late duplicate
		c.logg.Error(logCtx, "deal announcement failed", err)
		return processResult{ack: true}
	}

	c.logg.Info(logCtx, "deal announced")
	return processResult{ack: true}
}

const announcementColor = 0x2ecc71

func (c *Consumer) announcement(event *payloads.DealActivatedEvent) discord.WebhookMessage {
	fields := []discord.EmbedField{
		{Name: "Retail", Value: "$" + event.RetailPrice.StringFixed(2), Inline: true},
		{Name: "Payout", Value: "$" + event.Payout.StringFixed(2), Inline: true},
		{Name: "Type", Value: priceTypeLabel(event.PriceType), Inline: true},
	}
	if event.LimitPerVendor != nil {
		fields = append(fields, discord.EmbedField{Name: "Limit", Value: fmt.Sprintf("%d per vendor", *event.LimitPerVendor), Inline: true})
	}
	if event.IsExclusive && event.ExclusivePrice != nil {
		fields = append(fields, discord.EmbedField{Name: "VIP payout", Value: "$" + event.ExclusivePrice.StringFixed(2), Inline: true})
	}
	if event.Deadline != nil {
		fields = append(fields, discord.EmbedField{Name: "Deadline", Value: fmt.Sprintf("<t:%d:R>", event.Deadline.Unix()), Inline: true})
	}

	embed := discord.Embed{
		Title:     event.Title,
		Color:     announcementColor,
		Fields:    fields,
		Timestamp: event.ActivatedAt.UTC().Format(time.RFC3339),
	}
	if c.linkBase != "" && event.Slug != "" {
		embed.URL = c.linkBase + "/" + event.Slug
	}
	if event.ImageURL != nil && strings.TrimSpace(*event.ImageURL) != "" {
		embed.Image = &discord.EmbedImage{URL: strings.TrimSpace(*event.ImageURL)}
	}
	return discord.WebhookMessage{
		Content: "New deal is live!",
		Embeds:  []discord.Embed{embed},
	}
}

func priceTypeLabel(pt enums.PriceType) string {
	switch pt {
	case enums.PriceTypeAboveRetail:
		return "Above retail"
	case enums.PriceTypeRetail:
		return "Retail"
	case enums.PriceTypeBelowCost:
		return "Below cost"
	default:
		return string(pt)
	}
}

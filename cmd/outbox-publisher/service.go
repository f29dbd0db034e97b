package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/db/models"
	"github.com/angelmondragon/vendorpool-backend/pkg/enums"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxIdleBackoff        = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisherFactory func(topic string) publisher

// publisher sends one message. Messages carry the aggregate id as ordering
// key; after a failed publish the key stays paused until Resume is called.
type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
	Resume(orderingKey string)
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLettered
)

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
}

// Service relays deal, commitment and invoice events from the outbox table to
// Pub/Sub. Events of one aggregate are published in insert order: once an
// event fails, later events of the same aggregate wait for the next batch.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	pubsub       pubSubClient
	repo         outboxRepository
	registry     registryResolver
	dlq          dlqRepository
	publishers   *publisherCache
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			return newOrderedPublisher(params.PubSub.Publisher(topic))
		}
	}

	outboxCfg := params.Config.Outbox
	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		pubsub:       params.PubSub,
		repo:         params.Repository,
		registry:     params.Registry,
		dlq:          params.DLQRepository,
		publishers:   newPublisherCache(factory),
		batchSize:    positiveOr(outboxCfg.BatchSize, defaultBatchSize),
		maxAttempts:  positiveOr(outboxCfg.MaxAttempts, defaultMaxAttempts),
		pollInterval: time.Duration(positiveOr(outboxCfg.PollIntervalMS, defaultPollMs)) * time.Millisecond,
		now:          time.Now,
	}, nil
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// Run drains the outbox until ctx is cancelled. Empty polls and batch errors
// both back off, capped at maxIdleBackoff.
func (s *Service) Run(ctx context.Context) error {
	deps := []struct {
		name string
		ping func(context.Context) error
	}{{"database", s.db.Ping}, {"pubsub", s.pubsub.Ping}}
	for _, dep := range deps {
		if err := dep.ping(ctx); err != nil {
			s.logg.Error(ctx, dep.name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	defer s.publishers.stop()

	wait := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		handled, err := s.processBatch(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox publisher batch error", err)
			wait = min(wait*2, maxIdleBackoff)
		case handled:
			wait = s.pollInterval
			continue
		default:
			wait = s.pollInterval
		}

		if err := sleepWithJitter(ctx, wait); err != nil {
			return err
		}
	}
}

// processBatch locks one batch of pending rows and settles each of them in
// the same transaction. It reports whether any row was fetched.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	fetched := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		fetched = len(events) > 0

		blocked := map[uuid.UUID]bool{}
		for _, event := range events {
			if blocked[event.AggregateID] {
				continue
			}
			result, err := s.dispatch(ctx, tx, event)
			if err != nil {
				return err
			}
			if result == outcomeRetry {
				blocked[event.AggregateID] = true
			}
		}
		return nil
	})
	return fetched, err
}

func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	fields := eventLogFields(event)

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
	}
	topic := resolved.Descriptor.Topic
	fields["topic"] = topic
	fields["event_id"] = resolved.Envelope.EventID

	pub := s.publishers.get(topic)
	if pub == nil {
		err := registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
	}

	err = s.publish(ctx, pub, event, resolved)
	if err == nil {
		if markErr := s.repo.MarkPublishedTx(tx, event.ID); markErr != nil {
			return outcomePublished, fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return outcomePublished, nil
	}

	pub.Resume(orderingKey(event))
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
	}

	attempt := event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		err = fmt.Errorf("max publish attempts reached: %w", err)
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, err, fields)
	}

	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error()), "outbox publish failed")
	if markErr := s.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
		return outcomeRetry, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
	}
	return outcomeRetry, nil
}

func (s *Service) publish(ctx context.Context, pub publisher, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(publishCtx, &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: orderingKey(event),
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", resolved.Descriptor.Topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

// deadLetter copies the event into the DLQ and stops further attempts.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	fields["error_reason"] = reason
	s.logg.Warn(s.logg.WithField(s.logg.WithFields(ctx, fields), "error", cause.Error()), "outbox event will not be retried")

	message := cause.Error()
	if err := s.dlq.InsertTx(tx, models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  event.AttemptCount,
		FailedAt:      s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func orderingKey(event models.OutboxEvent) string {
	return string(event.AggregateType) + ":" + event.AggregateID.String()
}

func eventLogFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func sleepWithJitter(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d + rand.N(jitterWindow))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// publisherCache keeps one publisher per topic for the life of the process.
// A nil factory result is cached too so a missing topic is not re-resolved.
type publisherCache struct {
	mu      sync.Mutex
	factory publisherFactory
	byTopic map[string]publisher
}

func newPublisherCache(factory publisherFactory) *publisherCache {
	return &publisherCache{factory: factory, byTopic: map[string]publisher{}}
}

func (c *publisherCache) get(topic string) publisher {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.byTopic[topic]; ok {
		return pub
	}
	pub := c.factory(topic)
	c.byTopic[topic] = pub
	return pub
}

func (c *publisherCache) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, pub := range c.byTopic {
		if stopper, ok := pub.(interface{ Stop() }); ok {
			stopper.Stop()
		}
		delete(c.byTopic, topic)
	}
}

type orderedPublisher struct {
	*gcppubsub.Publisher
}

func newOrderedPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	return &orderedPublisher{Publisher: p}
}

func (p *orderedPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}

func (p *orderedPublisher) Resume(orderingKey string) {
	p.Publisher.ResumePublish(orderingKey)
}

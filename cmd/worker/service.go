package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/vendorpool-backend/internal/notifications"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   pinger
	Redis                pinger
	PubSub               pinger
	NotificationConsumer *notifications.Consumer
}

type Service struct {
	cfg       *config.Config
	logg      *logger.Logger
	deps      []dependency
	consumers []consumer
}

type dependency struct {
	name string
	ping pinger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.NotificationConsumer == nil {
		return nil, errors.New("notification consumer is required")
	}

	return &Service{
		cfg:  params.Config,
		logg: params.Logger,
		deps: []dependency{
			{name: "database", ping: params.DB},
			{name: "redis", ping: params.Redis},
			{name: "pubsub", ping: params.PubSub},
		},
		consumers: []consumer{params.NotificationConsumer},
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.ping.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", dep.name), err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until ctx is cancelled or a consumer exits.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, len(s.consumers))
	for _, c := range s.consumers {
		go func(c consumer) {
			errCh <- c.Run(ctx)
		}(c)
	}

	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		}
		return err
	}
}

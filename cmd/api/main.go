package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/vendorpool-backend/api/routes"
	"github.com/angelmondragon/vendorpool-backend/internal/commitments"
	"github.com/angelmondragon/vendorpool-backend/internal/deals"
	"github.com/angelmondragon/vendorpool-backend/internal/profiles"
	"github.com/angelmondragon/vendorpool-backend/internal/warehouses"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	"github.com/angelmondragon/vendorpool-backend/pkg/db"
	"github.com/angelmondragon/vendorpool-backend/pkg/discord"
	"github.com/angelmondragon/vendorpool-backend/pkg/instance"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
	"github.com/angelmondragon/vendorpool-backend/pkg/metrics"
	"github.com/angelmondragon/vendorpool-backend/pkg/migrate"
	"github.com/angelmondragon/vendorpool-backend/pkg/outbox"
	"github.com/angelmondragon/vendorpool-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	profileRepo := profiles.NewRepository(dbClient.DB())
	guild := discord.NewClient(cfg.Discord)
	if !guild.MembershipConfigured() {
		logg.Warn(context.Background(), "discord membership lookups disabled; using stored flags")
	}
	membership := profiles.NewMembershipService(profileRepo, redisClient, guild, cfg.Discord.MembershipTTL, logg)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	dealRepo := deals.NewRepository(dbClient.DB())

	dealService, err := deals.NewService(deals.ServiceParams{
		Tx:         dbClient,
		Repo:       dealRepo,
		Profiles:   profileRepo,
		Membership: membership,
		Outbox:     outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create deal service", err)
		os.Exit(1)
	}

	warehouseService, err := warehouses.NewService(warehouses.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}

	commitmentService, err := commitments.NewService(commitments.ServiceParams{
		Tx:         dbClient,
		Repo:       commitments.NewRepository(dbClient.DB()),
		Deals:      dealRepo,
		Profiles:   profileRepo,
		Membership: membership,
		Warehouses: warehouseService,
		Outbox:     outboxService,
		Metrics:    metrics.NewAllocationMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create commitment service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			profileRepo,
			dealService,
			commitmentService,
			warehouseService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

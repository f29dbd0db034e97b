package config

import "time"

const EnvPrefix = "VENDORPOOL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// MinMembershipTTL is the shortest time a guild membership result is trusted.
const MinMembershipTTL = time.Hour

const (
	EnvAppEnv   = "VENDORPOOL_APP_ENV"
	EnvPort     = "VENDORPOOL_APP_PORT"
	EnvLogLevel = "VENDORPOOL_LOG_LEVEL"

	EnvDBDSN  = "VENDORPOOL_DB_DSN"
	EnvDBHost = "VENDORPOOL_DB_HOST"
	EnvDBPort = "VENDORPOOL_DB_PORT"
	EnvDBUser = "VENDORPOOL_DB_USER"
	EnvDBPass = "VENDORPOOL_DB_PASSWORD"
	EnvDBName = "VENDORPOOL_DB_NAME"

	EnvRedisURL = "VENDORPOOL_REDIS_URL"

	EnvJWTSecret = "VENDORPOOL_JWT_SECRET"
	EnvJWTIssuer = "VENDORPOOL_JWT_ISSUER"

	EnvGCPProjectID = "VENDORPOOL_GCP_PROJECT_ID"

	EnvPubSubDealEventsTopic  = "VENDORPOOL_PUBSUB_DEAL_EVENTS_TOPIC"
	EnvPubSubNotificationSub  = "VENDORPOOL_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvDiscordMembershipTTL   = "VENDORPOOL_DISCORD_MEMBERSHIP_TTL"
	EnvDiscordWebhookURL      = "VENDORPOOL_DISCORD_WEBHOOK_URL"
	EnvDiscordBotToken        = "VENDORPOOL_DISCORD_BOT_TOKEN"
	EnvDiscordGuildID         = "VENDORPOOL_DISCORD_GUILD_ID"
	EnvCronInterval           = "VENDORPOOL_CRON_INTERVAL"
	EnvOutboxPublishBatchSize = "VENDORPOOL_OUTBOX_PUBLISH_BATCH_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

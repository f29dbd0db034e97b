package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Discord      DiscordConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	cfg.Discord.clampMembershipTTL()
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VENDORPOOL_APP_ENV" required:"true"`
	Port         string `envconfig:"VENDORPOOL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VENDORPOOL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VENDORPOOL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"VENDORPOOL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VENDORPOOL_DB_DSN"`
	Driver string `envconfig:"VENDORPOOL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDORPOOL_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDORPOOL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDORPOOL_DB_USER"`
	LegacyPassword string `envconfig:"VENDORPOOL_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDORPOOL_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDORPOOL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDORPOOL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORPOOL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORPOOL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORPOOL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENDORPOOL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VENDORPOOL_REDIS_ADDR"`
	Password     string        `envconfig:"VENDORPOOL_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDORPOOL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDORPOOL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDORPOOL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDORPOOL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDORPOOL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDORPOOL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the hosted auth provider.
type JWTConfig struct {
	Secret   string `envconfig:"VENDORPOOL_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"VENDORPOOL_JWT_ISSUER"`
	Audience string `envconfig:"VENDORPOOL_JWT_AUDIENCE" default:"authenticated"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDORPOOL_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"VENDORPOOL_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"VENDORPOOL_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	DealEventsTopic          string `envconfig:"VENDORPOOL_PUBSUB_DEAL_EVENTS_TOPIC" default:"vp-deal-events"`
	CommitmentEventsTopic    string `envconfig:"VENDORPOOL_PUBSUB_COMMITMENT_EVENTS_TOPIC" default:"vp-commitment-events"`
	NotificationSubscription string `envconfig:"VENDORPOOL_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VENDORPOOL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VENDORPOOL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VENDORPOOL_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// DiscordConfig drives guild membership checks and deal announcements.
type DiscordConfig struct {
	APIBaseURL    string        `envconfig:"VENDORPOOL_DISCORD_API_BASE_URL" default:"https://discord.com/api/v10"`
	BotToken      string        `envconfig:"VENDORPOOL_DISCORD_BOT_TOKEN"`
	GuildID       string        `envconfig:"VENDORPOOL_DISCORD_GUILD_ID"`
	WebhookURL    string        `envconfig:"VENDORPOOL_DISCORD_WEBHOOK_URL"`
	DealLinkBase  string        `envconfig:"VENDORPOOL_DISCORD_DEAL_LINK_BASE" default:"https://app.vendorpool.io/deals"`
	MembershipTTL time.Duration `envconfig:"VENDORPOOL_DISCORD_MEMBERSHIP_TTL" default:"1h"`
	HTTPTimeout   time.Duration `envconfig:"VENDORPOOL_DISCORD_HTTP_TIMEOUT" default:"5s"`
}

// MembershipEnabled reports whether guild lookups are configured.
func (d DiscordConfig) MembershipEnabled() bool {
	return strings.TrimSpace(d.BotToken) != "" && strings.TrimSpace(d.GuildID) != ""
}

func (d *DiscordConfig) clampMembershipTTL() {
	if d.MembershipTTL < MinMembershipTTL {
		d.MembershipTTL = MinMembershipTTL
	}
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VENDORPOOL_CRON_INTERVAL" default:"5m"`
}

// RateLimitConfig throttles vendor commitment writes. A zero limit disables
// that scope.
type RateLimitConfig struct {
	Window             time.Duration `envconfig:"VENDORPOOL_RATE_LIMIT_WINDOW" default:"1m"`
	CommitmentsPerIP   int           `envconfig:"VENDORPOOL_RATE_LIMIT_COMMITMENTS_IP" default:"120"`
	CommitmentsPerUser int           `envconfig:"VENDORPOOL_RATE_LIMIT_COMMITMENTS_USER" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	HTTPAddr    string
	DatabaseURL string
	RedisURL    string

	// RabbitMQ
	RabbitURL      string
	RabbitExchange string

	// Auth collaborators
	JWTSecret      string
	JWTIssuer      string
	InternalSecret string
	CronSecret     string

	// Device fingerprint cookie
	DeviceCookieSecret string
	DeviceCookieTTL    time.Duration

	// Ephemeral store TTLs
	EngagementTTL  time.Duration
	GuestListTTL   time.Duration
	RecentViewsTTL time.Duration
	MaxRecentViews int

	// Reminder dispatch
	DispatchEnabled bool
	LockTTL         time.Duration
	NotifyCooldown  time.Duration
	NotifyMaxCount  int
	DispatchBatch   int
	PushGatewayURL  string
	PushAPIKey      string
	PushTimeout     time.Duration

	// Archiver
	ArchiveEnabled    bool
	ArchiveInterval   time.Duration
	ArchiveStaleAfter time.Duration
	ArchiveBatch      int

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8084")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "artfolio.engagement")

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.JWTIssuer = getEnv("JWT_ISSUER", "")
	cfg.InternalSecret = getEnv("INTERNAL_SECRET", "")
	cfg.CronSecret = getEnv("CRON_SECRET", "")

	cfg.DeviceCookieSecret = getEnv("DEVICE_COOKIE_SECRET", "")
	cfg.DeviceCookieTTL = getDuration("DEVICE_COOKIE_TTL", 180*24*time.Hour)

	// Heavy pages (artwork zoom views) warrant the longer profile; the
	// default is the light 30m.
	cfg.EngagementTTL = getDuration("ENGAGEMENT_TTL", 30*time.Minute)
	cfg.GuestListTTL = getDuration("GUEST_LIST_TTL", 7*24*time.Hour)
	cfg.RecentViewsTTL = getDuration("RECENT_VIEWS_TTL", 14*24*time.Hour)
	cfg.MaxRecentViews = getIntEnv("MAX_RECENT_VIEWS", 20)

	cfg.DispatchEnabled = getEnv("NOTIFY_DISPATCH_ENABLED", "true") == "true"
	cfg.LockTTL = getDuration("LOCK_TTL", 15*time.Minute)
	cfg.NotifyCooldown = getDuration("NOTIFY_COOLDOWN", time.Hour)
	cfg.NotifyMaxCount = getIntEnv("NOTIFY_MAX_COUNT", 3)
	cfg.DispatchBatch = getIntEnv("DISPATCH_BATCH", 100)
	cfg.PushGatewayURL = getEnv("PUSH_GATEWAY_URL", "")
	cfg.PushAPIKey = getEnv("PUSH_API_KEY", "")
	cfg.PushTimeout = getDuration("PUSH_TIMEOUT", 5*time.Second)

	// the drain window must sit inside the engagement TTL: a record that
	// only goes stale after redis has evicted it can never be archived
	cfg.ArchiveEnabled = getEnv("ARCHIVE_ENABLED", "true") == "true"
	cfg.ArchiveInterval = getDuration("ARCHIVE_INTERVAL", 5*time.Minute)
	cfg.ArchiveStaleAfter = getDuration("ARCHIVE_STALE_AFTER", 15*time.Minute)
	cfg.ArchiveBatch = getIntEnv("ARCHIVE_BATCH", 200)

	// Rate Limiting Defaults: 300 reqs / 1 min (engagement heartbeats are chatty)
	cfg.RLEnabled = getEnv("RL_ENABLED", "true") == "true"
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 300)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	// validation
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	if cfg.DeviceCookieSecret == "" {
		return nil, fmt.Errorf("missing DEVICE_COOKIE_SECRET")
	}

	// internal surface secrets: dev may run open; non-dev must not
	if cfg.AppEnv != "dev" {
		if cfg.InternalSecret == "" {
			return nil, fmt.Errorf("missing INTERNAL_SECRET (required when APP_ENV != dev)")
		}
		if cfg.CronSecret == "" {
			return nil, fmt.Errorf("missing CRON_SECRET (required when APP_ENV != dev)")
		}
	}

	if cfg.ArchiveEnabled && cfg.ArchiveStaleAfter >= cfg.EngagementTTL {
		return nil, fmt.Errorf("ARCHIVE_STALE_AFTER (%s) must be below ENGAGEMENT_TTL (%s): records evicted before they go stale are never archived",
			cfg.ArchiveStaleAfter, cfg.EngagementTTL)
	}

	// a dispatcher without push credentials is a deployment mistake,
	// not a runtime condition; dev falls back to the fake sender
	if cfg.DispatchEnabled && cfg.AppEnv != "dev" {
		if cfg.PushGatewayURL == "" || cfg.PushAPIKey == "" {
			return nil, fmt.Errorf("missing PUSH_GATEWAY_URL/PUSH_API_KEY (required when dispatch enabled)")
		}
	}

	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

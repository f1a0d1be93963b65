package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/artfolio/engagement-service/internal/application/archive"
	"github.com/artfolio/engagement-service/internal/application/engagement"
	"github.com/artfolio/engagement-service/internal/application/guestlist"
	"github.com/artfolio/engagement-service/internal/application/migration"
	"github.com/artfolio/engagement-service/internal/application/notify"
	"github.com/artfolio/engagement-service/internal/config"
	redisinfra "github.com/artfolio/engagement-service/internal/infrastructure/caching/redis"
	"github.com/artfolio/engagement-service/internal/infrastructure/db/postgres"
	rabbitpub "github.com/artfolio/engagement-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/artfolio/engagement-service/internal/infrastructure/push"
	"github.com/artfolio/engagement-service/internal/logger"
	"github.com/artfolio/engagement-service/internal/transport/http/handlers"
	authmw "github.com/artfolio/engagement-service/internal/transport/http/middleware"
	"github.com/artfolio/engagement-service/internal/transport/http/router"
)

// sysClock implements the application Clock ports using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB
	Redis  *redisinfra.Client

	Archiver  *archive.Archiver
	Publisher *rabbitpub.Publisher
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logDBTarget(cfg.DatabaseURL)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	rc, err := redisinfra.New(cfg.RedisURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("redis connect failed")
	}
	defer rc.Close()

	app := NewApp(cfg, db, rc)
	defer func() {
		if app.Publisher != nil {
			_ = app.Publisher.Close()
		}
	}()

	if cfg.ArchiveEnabled {
		app.Archiver.Start(context.Background())
	}

	zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal().Err(err).Msg("server crashed")
	}
}

// logDBTarget logs where the service is about to connect, without the
// password. Unparseable URLs are left for sql.Open to reject.
func logDBTarget(raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		return
	}
	zlog.Info().
		Str("db_user", u.User.Username()).
		Str("db_host", u.Host).
		Str("db_db", u.Path).
		Msg("db config loaded")
}

func NewApp(cfg *config.Config, db *sql.DB, rc *redisinfra.Client) *App {
	// 1) Infrastructure
	deviceStore := redisinfra.NewDeviceStore(rc,
		cfg.EngagementTTL, cfg.GuestListTTL, cfg.RecentViewsTTL, cfg.MaxRecentViews)
	cartRepo := postgres.NewCartRepo(db)
	lockRepo := postgres.NewLockRepo(db)
	notifyRepo := postgres.NewNotifyRepo(db)
	archiveRepo := postgres.NewArchiveRepo(db)

	// publisher wiring
	var rabbit *rabbitpub.Publisher
	var migPub migration.EventPublisher = migration.NoopPublisher{}
	var notifyPub notify.EventPublisher = notify.NoopPublisher{}

	if cfg.RabbitURL != "" {
		p, err := rabbitpub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		rabbit = p
		migPub = p
		notifyPub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events will not be published")
	}

	// push sender: the fake logs deliveries when no gateway is configured
	var sender notify.Sender
	if cfg.PushGatewayURL != "" {
		sender = push.NewWebhookSender(push.Config{
			GatewayURL: cfg.PushGatewayURL,
			APIKey:     cfg.PushAPIKey,
			Timeout:    cfg.PushTimeout,
		}, zlog.Logger)
	} else {
		sender = push.NewFakeSender(zlog.Logger)
		zlog.Warn().Msg("PUSH_GATEWAY_URL empty: using fake push sender")
	}

	// 2) Application
	engSvc := engagement.New(deviceStore, sysClock{})
	guestSvc := guestlist.New(deviceStore, sysClock{})
	migSvc := migration.New(deviceStore, cartRepo, migPub, sysClock{})
	dispatcher := notify.NewDispatcher(lockRepo, cartRepo, notifyRepo, sender, notifyPub, sysClock{}, notify.Config{
		LockTTL:   cfg.LockTTL,
		Cooldown:  cfg.NotifyCooldown,
		MaxCount:  cfg.NotifyMaxCount,
		BatchSize: cfg.DispatchBatch,
	})
	archiver := archive.New(deviceStore, archiveRepo, sysClock{}, archive.Config{
		Interval:   cfg.ArchiveInterval,
		StaleAfter: cfg.ArchiveStaleAfter,
		BatchSize:  cfg.ArchiveBatch,
	})

	// 3) Transport
	engHandler := handlers.NewEngagementsHandler(engSvc)
	guestHandler := handlers.NewGuestHandler(guestSvc)
	internalHandler := handlers.NewInternalHandler(migSvc, dispatcher, cfg.CronSecret)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)
	health := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": db.PingContext,
		"redis":    rc.Ping,
	})

	// 4) Router
	httpHandler := router.New(engHandler, guestHandler, internalHandler, health, auth, cfg)

	// 5) Server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &App{
		Config:    cfg,
		Server:    srv,
		DB:        db,
		Redis:     rc,
		Archiver:  archiver,
		Publisher: rabbit,
	}
}

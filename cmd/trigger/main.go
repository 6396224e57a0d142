package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course_trigger_engine/internal/app"
	"course_trigger_engine/internal/infra/config"
	idb "course_trigger_engine/internal/infra/database"
	"course_trigger_engine/internal/infra/httpapi"
	"course_trigger_engine/internal/infra/logger"
	"course_trigger_engine/internal/infra/mail"
	"course_trigger_engine/internal/infra/metrics"
	"course_trigger_engine/internal/infra/redislock"
	"course_trigger_engine/internal/infra/scheduler"
	"course_trigger_engine/internal/infra/telegram"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	once := flag.Bool("once", false, "run a single trigger pass, print its summary and exit")
	migrate := flag.Bool("migrate", false, "apply the embedded database schema and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"timezone":    cfg.Timezone,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, cfg.Database.MaxOpenConns)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established")

	if *migrate || cfg.Database.AutoMigrate {
		applied, err := idb.Migrate(ctx, db)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not apply migrations")
		}
		mainLogger.WithField("files", applied).Info("Migrations applied")
		if *migrate {
			return
		}
	}

	loc, _ := cfg.Location() // validated by config.Load
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var bot *telebot.Bot
	if cfg.TelegramEnabled() {
		bot, err = telegram.NewBot(cfg.Telegram.Token, logger.Component("telebot"))
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
	}

	rdb, coordinator := buildCoordinator(ctx, cfg, db, loc, registry, bot, mainLogger)
	if rdb != nil {
		defer rdb.Close()
	}

	if *once {
		code := runOnce(ctx, coordinator, mainLogger)
		if rdb != nil {
			rdb.Close()
		}
		db.Close()
		os.Exit(code)
	}

	serve(ctx, cfg, coordinator, loc, registry, bot, mainLogger)
}

func buildCoordinator(
	ctx context.Context,
	cfg *config.AppConfig,
	db *sqlx.DB,
	loc *time.Location,
	registry *prometheus.Registry,
	bot *telebot.Bot,
	mainLogger *logrus.Entry,
) (*redis.Client, *app.RunCoordinator) {
	base := logrus.NewEntry(logger.Log)
	timeout := cfg.Database.QueryTimeout

	scheduleRepo := idb.NewPostgresScheduleRepository(db, timeout)
	enrollmentRepo := idb.NewPostgresEnrollmentRepository(db, timeout)
	moduleRepo := idb.NewPostgresModuleRepository(db, timeout)
	deliveryLogRepo := idb.NewPostgresDeliveryLogRepository(db, timeout)

	smtp, err := mail.NewSMTPChannel(mail.SMTPOptions{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		From:      cfg.SMTP.From,
		Timeout:   cfg.SMTP.SendTimeout,
		TLSPolicy: cfg.SMTP.TLSPolicy,
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create SMTP channel")
	}
	channel := mail.NewRateLimitedChannel(smtp, cfg.SMTP.RatePerSecond)

	var (
		guard app.FireGuard = app.NoopFireGuard{}
		rdb   *redis.Client
	)
	if cfg.Redis.URL != "" {
		rdb, err = redislock.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to Redis")
		}
		guard = redislock.NewFireGuard(rdb, cfg.Redis.ClaimTTL)
		mainLogger.Info("Redis fire guard enabled")
	}

	clock := app.NewWallClock(loc)
	dispatcher := app.NewNotificationDispatcher(
		scheduleRepo,
		app.NewRecipientResolver(enrollmentRepo),
		channel,
		deliveryLogRepo,
		guard,
		clock,
		app.DispatcherOptions{Concurrency: cfg.Delivery.Concurrency, SendTimeout: cfg.SMTP.SendTimeout},
		base,
	)
	gate := app.NewPublicationGate(moduleRepo, base)

	observers := []app.RunObserver{metrics.New(registry)}
	if bot != nil {
		observers = append(observers, app.NewOperatorReporter(telegram.NewChatNotifier(bot), cfg.Telegram.OperatorChatID, base))
	}

	return rdb, app.NewRunCoordinator(gate, dispatcher, clock, base, observers...)
}

// runOnce does not stop on SIGINT once the pass has started. Every send is
// bounded by the SMTP timeout.
func runOnce(ctx context.Context, coordinator *app.RunCoordinator, mainLogger *logrus.Entry) int {
	summary, err := coordinator.Run(ctx)
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	if err != nil {
		mainLogger.WithError(err).Error("Run aborted")
		return 1
	}
	return 0
}

func serve(
	ctx context.Context,
	cfg *config.AppConfig,
	coordinator *app.RunCoordinator,
	loc *time.Location,
	registry *prometheus.Registry,
	bot *telebot.Bot,
	mainLogger *logrus.Entry,
) {
	base := logrus.NewEntry(logger.Log)

	triggerScheduler := scheduler.NewTriggerScheduler(coordinator, cfg.TriggerCronSpec, loc, base)
	if err := triggerScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start trigger scheduler")
	}

	handler := httpapi.NewHandler(coordinator, registry, cfg.HTTP.TriggerToken, base)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		mainLogger.WithField("addr", cfg.HTTP.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if bot != nil {
		telegram.NewOperatorHandlers(coordinator, cfg.Telegram.OperatorChatID, base).Register(bot)
		go bot.Start()
		mainLogger.Info("Operator bot started")
	}

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	if bot != nil {
		bot.Stop()
	}
	triggerScheduler.Stop()
	mainLogger.Info("Application shut down gracefully")
}

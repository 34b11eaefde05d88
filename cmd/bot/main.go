package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raditpra/unduh-bot/internal/bot"
	"github.com/raditpra/unduh-bot/internal/database"
	"github.com/raditpra/unduh-bot/internal/domain"
	"github.com/raditpra/unduh-bot/internal/entitlement"
	"github.com/raditpra/unduh-bot/internal/guard"
	"github.com/raditpra/unduh-bot/internal/health"
	"github.com/raditpra/unduh-bot/internal/idempotency"
	"github.com/raditpra/unduh-bot/internal/jobs"
	jobhandlers "github.com/raditpra/unduh-bot/internal/jobs/handlers"
	"github.com/raditpra/unduh-bot/internal/lifecycle"
	"github.com/raditpra/unduh-bot/internal/locks"
	"github.com/raditpra/unduh-bot/internal/media"
	"github.com/raditpra/unduh-bot/internal/middleware"
	"github.com/raditpra/unduh-bot/internal/reconcile"
	"github.com/raditpra/unduh-bot/internal/store"
	"github.com/raditpra/unduh-bot/internal/trakteer"
	"github.com/raditpra/unduh-bot/internal/vip"
	"github.com/raditpra/unduh-bot/pkg/config"
	"github.com/raditpra/unduh-bot/pkg/graceful"
	"github.com/raditpra/unduh-bot/pkg/logger"
	"github.com/raditpra/unduh-bot/pkg/metrics"
	redispkg "github.com/raditpra/unduh-bot/pkg/redis"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:     cfg.LogLevel,
		SentryDSN: cfg.Sentry.DSN,
	})
	slog.SetDefault(log)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("sentry init failed", slog.Any("error", err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, func(updated *config.Config) {
		log.Info("configuration reloaded", slog.String("log_level", updated.LogLevel))
	}, func(err error) {
		log.Error("configuration reload failed", slog.Any("error", err))
	})

	log.Info("starting unduh bot",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTPPort))

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := redispkg.New(ctx, redispkg.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	// core services
	st := store.NewPostgres(db, log)
	locker := locks.NewLocker(redisClient.Client, log)

	var catalogOpts []vip.Option
	if cfg.Downloads.FreeDailyLimit > 0 && cfg.Downloads.VipDailyLimit > 0 {
		catalogOpts = append(catalogOpts, vip.WithDailyLimits(cfg.Downloads.FreeDailyLimit, cfg.Downloads.VipDailyLimit))
	}
	catalog := vip.NewCatalog(catalogOpts...)

	feed := trakteer.NewClient(trakteer.Config{
		APIKey:   cfg.Trakteer.APIKey,
		FeedURL:  cfg.Trakteer.FeedURL,
		PageName: cfg.Trakteer.PageName,
	}, log)

	reconciler := reconcile.NewReconciler(feed, st, catalog, locker, log)

	tb, err := bot.NewTelebot(*cfg)
	if err != nil {
		log.Error("failed to create telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := bot.NewNotifier(tb, log)
	controller := entitlement.NewController(st, locker, notifier, log)

	membership := bot.NewMembershipChecker(tb)
	admission := guard.NewGuard(st, membership, catalog, cfg.Telegram.RequiredChannels, log)

	fetchChain := media.NewChain(
		media.NewResolver(redisClient.Client),
		log,
		media.NewTikwmStrategy(),
		media.NewOEmbedStrategy(),
		media.NewInstagramStrategy(),
	)

	idemStore := idempotency.NewRedisStore(redisClient.Client, log)
	idemManager := idempotency.NewManager(idemStore, log)
	go idempotency.NewCleaner(redisClient.Client, log, time.Hour).Run(ctx)

	app, err := bot.New(*cfg, log, tb, bot.Deps{
		Store:       st,
		Catalog:     catalog,
		Fetcher:     fetchChain,
		Guard:       admission,
		Reconciler:  reconciler,
		Controller:  controller,
		Idempotency: idemManager,
	})
	if err != nil {
		log.Error("failed to build bot", slog.Any("error", err))
		os.Exit(1)
	}

	// background jobs
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, nil, log)
	worker.RegisterHandler(jobs.TaskTypePaymentsSync,
		jobhandlers.NewPaymentsSyncHandler(reconciler, notifier, cfg.Telegram.AdminChatID, log))
	worker.RegisterHandler(jobs.TaskTypeVipExpirySweep,
		jobhandlers.NewVipExpirySweepHandler(controller, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
		}
	}()

	scheduler := jobs.NewScheduler(redisOpt, log)
	if err := scheduler.RegisterTasks(); err != nil {
		log.Error("failed to register scheduled tasks", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Run()

	manager := jobs.NewManager(redisOpt, log)
	if err := jobs.EnqueueInitialSync(ctx, manager); err != nil {
		log.Error("failed to enqueue startup payment sync", slog.Any("error", err))
	}

	go metrics.NewEntitlementCollector(statsSource{st}).Run(ctx)

	// ops endpoints
	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))
	checker.AddCheck("trakteer", health.NewFeedChecker(feed))
	probes := lifecycle.NewProbes(checker, log)

	opsServer := graceful.NewServer(log, &http.Server{
		Addr:              listenAddr(cfg.HTTPPort),
		Handler:           logger.Middleware(middleware.New(log)(opsMux(probes))),
		ReadHeaderTimeout: 5 * time.Second,
	}, shutdownTimeout)

	go func() {
		if err := opsServer.ListenAndServe(ctx); err != nil {
			log.Error("ops server stopped", slog.Any("error", err))
		}
	}()

	go app.Start()
	log.Info("unduh bot is running")

	<-ctx.Done()

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram", func(context.Context) error {
		app.Stop()
		return nil
	})
	shutdown.Register("jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})
	shutdown.Register("jobs-scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})
	shutdown.Register("jobs-manager", func(context.Context) error {
		return manager.Close()
	})
	shutdown.Register("redis", func(context.Context) error {
		return redisClient.Close()
	})
	shutdown.Register("database", func(context.Context) error {
		return db.Close()
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("unduh bot stopped")
}

// statsSource adapts the store snapshot to the metrics collector.
type statsSource struct {
	store store.Store
}

func (s statsSource) UserStats(ctx context.Context) (metrics.Stats, error) {
	stats, err := s.store.UserStats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}

	return metrics.Stats{
		ActiveVipCount:  stats.ActiveVipCount,
		PendingPayments: stats.PaymentsByStatus[domain.PaymentPending],
	}, nil
}

func opsMux(probes *lifecycle.Probes) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Liveness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := probes.Readiness(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func listenAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/carpool-gateway/internal/config"
	"github.com/iliyamo/carpool-gateway/internal/database"
	"github.com/iliyamo/carpool-gateway/internal/handler"
	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/middleware"
	"github.com/iliyamo/carpool-gateway/internal/moderation"
	"github.com/iliyamo/carpool-gateway/internal/queue"
	"github.com/iliyamo/carpool-gateway/internal/repository"
	"github.com/iliyamo/carpool-gateway/internal/router"
	"github.com/iliyamo/carpool-gateway/internal/service"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warning("redis unreachable, cache and rate limiting disabled")
	}

	kv, closeKV := openStorage(ctx, cfg, rdb, log)
	defer closeKV()

	validate := validator.New()
	backends := service.NewHTTPBackends(cfg.Backend, func(base string) *repository.Client {
		return repository.NewClient(base, cfg.ClientTimeout, nil)
	})

	deps := service.Deps{
		Backends:   backends,
		KV:         kv,
		Moderation: newChecker(cfg, log),
		Validate:   validate,
		Log:        log,
	}
	// direct needs the manager as its sink; it is a pointer so the sink is
	// set once the manager exists.
	direct := &service.DirectNotifier{Notifications: backends.Notifications, Log: log.Named("notifier")}
	if cfg.RabbitURL != "" {
		deps.Notifier = &service.QueueNotifier{Publisher: queue.NewPublisher(cfg.RabbitURL, log.Named("queue"))}
	} else {
		deps.Notifier = direct
	}
	sessions := service.NewSessionManager(deps)
	direct.Sink = sessions

	if cfg.RabbitURL != "" {
		consumer := &queue.Consumer{
			URL:    cfg.RabbitURL,
			Handle: direct.BookingChanged,
			Log:    log.Named("consumer"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", logger.Error(err))
			}
		}()
	}
	go sessions.RunReconciler(ctx, cfg.ReconcileInterval)
	go evictIdle(ctx, sessions, cfg.SessionTTL)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &handler.Validator{V: validate}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log.Named("http")))
	router.Register(e, router.Deps{
		Cfg:       cfg,
		Sessions:  sessions,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log.Named("http"),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", logger.String("addr", addr), logger.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", logger.Error(err))
	}
}

// openStorage selects the durable session store named by STORAGE_DRIVER.
// Unusable drivers fall back to memory with a warning.
func openStorage(ctx context.Context, cfg config.Config, rdb *redis.Client, log logger.ILogger) (storage.KV, func()) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "redis":
		if rdb != nil {
			return storage.NewRedis(rdb, cfg.StoragePrefix, cfg.SessionTTL), func() { _ = rdb.Close() }
		}
		log.Warning("storage driver redis unavailable, using memory")
	case "mysql":
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err == nil {
			if err = database.EnsureSchema(ctx, db); err != nil {
				_ = db.Close()
			} else {
				return storage.NewMySQL(db), func() { _ = db.Close() }
			}
		}
		log.Warning("storage driver mysql unavailable, using memory", logger.Error(err))
	}
	return storage.NewMemory(), func() {}
}

func newChecker(cfg config.Config, log logger.ILogger) moderation.Checker {
	switch strings.ToLower(cfg.ModerationMode) {
	case "allow":
		return &moderation.Static{Verdict: moderation.Safe}
	case "deny":
		return &moderation.Static{Verdict: moderation.Unsafe}
	}
	return moderation.NewGeminiChecker(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.ClientTimeout, log.Named("moderation"))
}

func evictIdle(ctx context.Context, sessions *service.SessionManager, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sessions.EvictIdle(maxIdle)
		}
	}
}

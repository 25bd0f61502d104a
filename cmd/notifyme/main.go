package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/azielinski/notifyme/internal/account"
	"github.com/azielinski/notifyme/internal/cache"
	"github.com/azielinski/notifyme/internal/config"
	"github.com/azielinski/notifyme/internal/event"
	"github.com/azielinski/notifyme/internal/geocode"
	httphandler "github.com/azielinski/notifyme/internal/http"
	"github.com/azielinski/notifyme/internal/mail"
	"github.com/azielinski/notifyme/internal/message"
	"github.com/azielinski/notifyme/internal/observability"
	"github.com/azielinski/notifyme/internal/provider"
	"github.com/azielinski/notifyme/internal/scheduler"
	"github.com/azielinski/notifyme/internal/store"
	"github.com/azielinski/notifyme/internal/weather"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer db.Close()
	userStore := store.NewUserStore(db)
	eventStore := store.NewEventStore(db)

	var (
		cacheStore  cache.Store
		cachePing   func() error
		cacheCloser func() error
	)
	switch cfg.CacheBackend {
	case "memcached":
		mc := cache.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns, logger)
		cacheStore = mc
		cachePing = mc.Ping
		cacheCloser = mc.Close
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "redis":
		rd := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		cacheStore = rd
		cachePing = func() error { return rd.Ping(context.Background()) }
		cacheCloser = rd.Close
		logger.Info("cache backend: redis", zap.String("addr", cfg.RedisAddr))
	default:
		cacheStore = cache.NewInMemoryStore()
		logger.Info("cache backend: in_memory")
	}

	resolver := geocode.NewOpenMeteoResolver(cfg.GeocodeURL, cfg.UpstreamTimeout, logger)
	forecast := provider.NewOpenMeteoClient(cfg.ForecastURL, cfg.UpstreamTimeout, logger)
	manager := weather.NewManager(forecast, resolver, cacheStore, logger)

	sender, err := mail.NewSMTPSender(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, logger)
	if err != nil {
		logger.Fatal("mail sender", zap.Error(err))
	}

	accounts := account.NewService(userStore, logger)
	events := event.NewService(eventStore, manager, logger)

	sweeper := scheduler.NewSweeper(userStore, eventStore, manager, message.NewBuilder(), sender, logger)
	cron := scheduler.NewCron(sweeper, cfg.DailySweepCron, cfg.HourlySweepCron, logger)
	if err := cron.Start(); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	defer cron.Stop()

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(accounts, events, logger, cachePing)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api").Subrouter()
	api.Use(httphandler.RateLimitMiddleware(limiter))
	api.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	api.HandleFunc("/users", handler.CreateUser).Methods("POST")
	api.HandleFunc("/users/{id}", handler.DeleteUser).Methods("DELETE")
	api.HandleFunc("/login", handler.Login).Methods("POST")
	api.HandleFunc("/events", handler.ListEvents).Methods("GET")
	api.HandleFunc("/events", handler.CreateEvent).Methods("POST")
	api.HandleFunc("/events/{id}", handler.GetEvent).Methods("GET")
	api.HandleFunc("/events/{id}", handler.DeleteEvent).Methods("DELETE")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	cron.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if cacheCloser != nil {
		if err := cacheCloser(); err != nil {
			logger.Error("cache close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}

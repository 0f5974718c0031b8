package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Attune/internal/crisis"
	handlers "Attune/internal/handler"
	"Attune/internal/listeners"
	"Attune/internal/models"
	"Attune/pkg/backup"
	"Attune/pkg/cache"
	"Attune/pkg/config"
	"Attune/pkg/llm"
	"Attune/pkg/logger"
	"Attune/pkg/metrics"
	"Attune/pkg/notification"
	"Attune/pkg/scheduler"
	"Attune/pkg/sse"
	"Attune/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		logger.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log); err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := util.InitDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Error("failed to migrate database", zap.Error(err))
		os.Exit(1)
	}
	if err := models.SeedNationalResources(db); err != nil {
		logger.Error("failed to seed fallback resources", zap.Error(err))
		os.Exit(1)
	}
	if cfg.GeoIPPath != "" {
		if err := util.InitGeoIP(cfg.GeoIPPath); err != nil {
			logger.Warn("geoip database unavailable", zap.Error(err))
		}
	}

	store, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		logger.Error("failed to init cache", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	notifier := buildNotifier(store)

	var provider llm.Analyzer
	switch {
	case cfg.LLMApiKey != "":
		provider = llm.NewOpenAIHandler(cfg.LLMApiKey, cfg.LLMBaseURL, cfg.LLMModel, crisis.AnalysisSystemPrompt, logrus.StandardLogger())
	case cfg.LLMBaseURL != "":
		provider = llm.NewOllamaHandler(cfg.LLMBaseURL, cfg.LLMModel, crisis.AnalysisSystemPrompt, logrus.StandardLogger())
	default:
		logger.Warn("no analysis provider configured, rule-based classification only")
	}
	gateway := crisis.NewAnalysisGateway(provider, cfg.AnalysisTimeout)

	history, err := crisis.NewHistoryTracker(db)
	if err != nil {
		logger.Error("failed to init history tracker", zap.Error(err))
		os.Exit(1)
	}
	matcher := crisis.NewResourceMatcher(crisis.GormCatalog{DB: db}, store)
	coord := crisis.NewCoordinator(db, gateway, history, matcher, notifier)

	// 后台作业
	sched := scheduler.New()
	defer sched.Stop()

	dispatcher := crisis.NewDispatcher(db, notifier, cfg.NotifyMaxRetries)
	sched.Every(30*time.Second, scheduler.FuncJob(func(ctx context.Context) {
		if err := dispatcher.RunOnce(ctx); err != nil {
			logger.Error("dispatch sweep failed", zap.Error(err))
		}
	}))

	followUps := crisis.NewFollowUpWorker(db, store)
	sched.Every(time.Minute, scheduler.FuncJob(func(ctx context.Context) {
		if err := followUps.RunOnce(ctx); err != nil {
			logger.Error("follow-up sweep failed", zap.Error(err))
		}
	}))

	cr := scheduler.NewCron(time.Local)
	if cfg.BackupEnabled {
		if err := backup.StartBackupScheduler(cr); err != nil {
			logger.Warn("backup scheduler not started", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	hub := sse.NewHub(15 * time.Second)
	listeners.InitCrisisListeners(db, hub)

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metrics.MonitorMiddleware(metrics.Global()))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.NewHandlers(db, coord, hub, store).Register(engine)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: engine}
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

// buildNotifier assembles the configured escalation channels behind the
// idempotency wrapper. With none configured, escalations still land in the
// log so a dev setup is observable.
func buildNotifier(store cache.Cache) notification.Notifier {
	cfg := config.GlobalConfig
	var channels notification.Fanout
	if cfg.NotifyWebhookURL != "" {
		channels = append(channels, notification.NewWebhookNotifier(cfg.NotifyWebhookURL))
	}
	if cfg.NotifySMSGateway != "" && cfg.NotifySMSTo != "" {
		channels = append(channels, notification.NewSMSNotifier(notification.SMSConfig{
			Gateway: cfg.NotifySMSGateway,
			To:      cfg.NotifySMSTo,
		}, notification.NewHTTPSMSClient(cfg.NotifySMSGateway)))
	}
	if len(channels) == 0 {
		channels = append(channels, notification.LogNotifier{})
	}
	return notification.NewDedupeNotifier(channels, store, 24*time.Hour)
}

// Package app wires configuration, storage, mail delivery and the HTTP API into
// one runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"qc-tracker/backend/internal/cache"
	"qc-tracker/backend/internal/config"
	"qc-tracker/backend/internal/handlers"
	"qc-tracker/backend/internal/mailer"
	"qc-tracker/backend/internal/middleware"
	"qc-tracker/backend/internal/monitoring"
	"qc-tracker/backend/internal/report"
	"qc-tracker/backend/internal/repositories"
	"qc-tracker/backend/internal/services"
	"qc-tracker/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type App struct {
	cfg     *config.Config
	log     *logrus.Logger
	store   repositories.Store
	redis   *cache.RedisCache
	worker  *worker.Worker
	limiter *middleware.RateLimiter
	router  *gin.Engine
	server  *http.Server
}

type statsProvider interface {
	Stats() map[string]interface{}
}

func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{cfg: cfg, log: log, store: store}

	sender, err := mailer.New(cfg.Email, log)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("configure mailer: %w", err)
	}
	if !cfg.SMTPConfigured() {
		log.Warn("EMAIL_HOST not set, outbound mail is logged instead of sent")
	}

	a.redis = connectRedis(ctx, cfg, log)

	var (
		throttle services.LoginThrottle
		queue    services.MailQueue
	)
	if a.redis != nil {
		throttle = services.NewRedisLoginThrottle(a.redis, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockoutWindow)
		queue = worker.NewJobQueue(a.redis, worker.DefaultQueue)

		a.worker = worker.NewWorker(worker.WorkerConfig{
			Cache:        a.redis,
			Queue:        worker.DefaultQueue,
			DeadQueue:    worker.DefaultDeadQueue,
			PollInterval: cfg.Worker.PollInterval,
			JobTimeout:   cfg.Email.NotifyTimeout,
			Logger:       log,
		})
		a.worker.RegisterHandler(worker.JobTypeEmailNotification, worker.NewEmailHandler(sender))
	}

	if cfg.RateLimit.Enabled {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
	}

	svc := handlers.Services{
		Tasks: services.NewTaskWorkflowService(store, sender, services.WorkflowConfig{
			DefaultAssignee:       cfg.Workflow.DefaultAssignee,
			NotifyTimeout:         cfg.Email.NotifyTimeout,
			DedupeApprovalReports: cfg.Workflow.DedupeApprovalReports,
		}, log),
		Reports:  services.NewReportService(store, report.NewRenderer(report.DefaultLetterhead()), log),
		Feedback: services.NewFeedbackService(store, log),
		Auth:     services.NewAuthService(store, throttle, cfg.Auth.BCryptCost, log),
		Mail:     services.NewOutboundMailService(queue, sender, cfg.Email.NotifyTimeout, log),
	}

	a.router = handlers.NewRouter(handlers.RouterConfig{
		Development:    cfg.IsDevelopment(),
		AllowedOrigins: strings.Split(cfg.Server.FrontendURL, ","),
		RateLimiter:    a.limiter,
	}, svc, a.monitoring(sender), log)

	a.server = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// connectRedis returns nil when Redis is disabled or unreachable. The login
// throttle and mail queue are then turned off.
func connectRedis(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	c := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := c.Health(ctx); err != nil {
		log.WithError(err).WithField("addr", cfg.GetRedisAddr()).Warn("redis unavailable, running without login throttle and mail queue")
		_ = c.Close()
		return nil
	}
	log.WithField("addr", cfg.GetRedisAddr()).Info("connected to redis")
	return c
}

func (a *App) monitoring(sender mailer.Sender) handlers.Monitoring {
	health := monitoring.NewHealthChecker(5 * time.Second)
	health.Register(monitoring.DatabaseCheck, a.store.Ping)

	stats := map[string]monitoring.StatsSource{}
	if sp, ok := a.store.(statsProvider); ok {
		stats["database"] = sp.Stats
	}
	if a.redis != nil {
		health.Register("redis", a.redis.Health)
		stats["redis"] = a.redis.Stats
	}
	if breaker, ok := sender.(*mailer.BreakerSender); ok {
		stats["mailer"] = func() map[string]interface{} {
			return map[string]interface{}{"breaker_state": breaker.State().String()}
		}
	}
	return handlers.Monitoring{Metrics: monitoring.NewMetrics(), Health: health, Stats: stats}
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a.worker != nil {
		a.worker.Start(ctx, a.cfg.Worker.Concurrency)
	}
	if a.limiter != nil {
		go a.limiter.Cleanup(ctx, a.cfg.RateLimit.CleanupInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{
			"addr":        a.server.Addr,
			"environment": a.cfg.Server.Environment,
			"store":       a.store.Name(),
		}).Info("starting server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case serveErr = <-errCh:
		a.log.WithError(serveErr).Error("server failed")
	}

	if err := a.Shutdown(); err != nil && serveErr == nil {
		return err
	}
	return serveErr
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}

	a.log.Info("server exited")
	return errors.Join(errs...)
}

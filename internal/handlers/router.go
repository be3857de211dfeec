package handlers

import (
	"net/http"
	"strings"
	"time"

	"qc-tracker/backend/internal/middleware"
	"qc-tracker/backend/internal/monitoring"
	"qc-tracker/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Development    bool
	AllowedOrigins []string
	// RateLimiter is optional; nil disables per-client limiting.
	RateLimiter *middleware.RateLimiter
}

type Services struct {
	Tasks    services.TaskWorkflow
	Reports  services.ReportService
	Feedback services.FeedbackService
	Auth     services.AuthService
	Mail     services.OutboundMail
}

type Monitoring struct {
	Metrics *monitoring.Metrics
	Health  *monitoring.HealthChecker
	Stats   map[string]monitoring.StatsSource
}

func NewRouter(cfg RouterConfig, svc Services, mon Monitoring, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	if mon.Metrics != nil {
		router.Use(mon.Metrics.Middleware())
	}
	router.Use(middleware.RecoveryWithLog(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	if mon.Health != nil {
		router.GET("/health", monitoring.HealthHandler(mon.Health, mon.Metrics))
	}
	if mon.Metrics != nil {
		router.GET("/metrics", monitoring.MetricsHandler(mon.Metrics, mon.Stats))
	}

	api := router.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware())
	}
	NewTaskHandler(svc.Tasks, svc.Mail, log, cfg.Development).RegisterRoutes(api)
	NewReportHandler(svc.Reports, log, cfg.Development).RegisterRoutes(api)
	NewFeedbackHandler(svc.Feedback, log, cfg.Development).RegisterRoutes(api)
	NewAuthHandler(svc.Auth, log, cfg.Development).RegisterRoutes(api)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			cfg.AllowOrigins = nil
			return cfg
		}
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}

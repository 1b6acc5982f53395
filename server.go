package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/api"
	"github.com/mmdatafocus/ledger_backend/budget"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/ledger"
	"github.com/mmdatafocus/ledger_backend/middlewares"
	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/store"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server first; app endpoints answer 503 until the api router is mounted.
	var apiRouter atomic.Pointer[gin.Engine]
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.ReadinessMiddleware(func() bool { return apiRouter.Load() != nil }))
	r.Use(cors.New(corsConfig()))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	var limiter atomic.Pointer[middlewares.RateLimiter]
	r.Use(func(c *gin.Context) {
		if rl := limiter.Load(); rl != nil {
			rl.RateLimitMiddleware(c)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.NoRoute(func(c *gin.Context) {
		apiRouter.Load().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; SKIP_MIGRATIONS=true moves it to a separate job.
	if !config.SkipMigrations() {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal("AutoMigrate failed: " + err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	rdb := config.GetRedisDB()
	if rdb != nil && strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		window := time.Duration(intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
		limiter.Store(middlewares.NewRateLimiter(rdb, intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600), window))
	}

	engine, tracker := buildServices(store.NewGormStore(db), logger)
	routes := gin.New()
	routes.Use(middlewares.ErrorLogger(logger))
	routes.Use(gin.Recovery())
	api.NewHandler(engine, tracker).Register(routes)
	routes.NoRoute(customNotFoundHandler)
	apiRouter.Store(routes)

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("ledger api listening on :", port)
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// buildServices wires the engine and tracker to redis when it is connected,
// to in-process fallbacks otherwise.
func buildServices(s store.Store, logger *logrus.Logger) (*ledger.Engine, *budget.Tracker) {
	var cache utils.ReportCache = utils.NoopReportCache{}
	if config.ReportCacheEnabled() {
		if config.GetRedisDB() != nil {
			cache = utils.NewRedisReportCache(config.ReportCacheTTL())
		} else {
			cache = utils.NewMemoryReportCache(config.ReportCacheTTL())
		}
	}
	var locker utils.AccountLocker = utils.NewLocalAccountLocker()
	if lockClient := config.GetRedisLock(); lockClient != nil {
		locker = utils.NewRedisAccountLocker(lockClient, config.AccountLockTTL(), logger)
	}
	engine := ledger.NewEngine(s,
		ledger.WithLocker(locker),
		ledger.WithReportCache(cache),
		ledger.WithLogger(logger),
	)
	tracker := budget.NewTracker(s,
		budget.WithReportCache(cache),
		budget.WithLogger(logger),
	)
	return engine, tracker
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders(middlewares.HeaderTenantId, middlewares.HeaderUserId, middlewares.HeaderCorrelationId, "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", middlewares.HeaderCorrelationId)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func intFromEnv(key string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yumeleng/scholar-qa-go/internal/buildinfo"
	"github.com/yumeleng/scholar-qa-go/internal/config"
	"github.com/yumeleng/scholar-qa-go/internal/ctxutil"
	"github.com/yumeleng/scholar-qa-go/internal/dialog"
	"github.com/yumeleng/scholar-qa-go/internal/field"
	"github.com/yumeleng/scholar-qa-go/internal/httpapi"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
	"github.com/yumeleng/scholar-qa-go/internal/metrics"
	"github.com/yumeleng/scholar-qa-go/internal/qa"
	"github.com/yumeleng/scholar-qa-go/internal/ratelimit"
	"github.com/yumeleng/scholar-qa-go/internal/sentry"
	"github.com/yumeleng/scholar-qa-go/internal/storage"
)

const (
	readinessCheckTimeout = 5 * time.Second
	cacheCleanupPeriod    = time.Hour
	metricsUpdatePeriod   = time.Minute

	httpReadTimeout  = 10 * time.Second
	httpWriteTimeout = 30 * time.Second
	httpIdleTimeout  = 120 * time.Second
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg        *config.Config
	logger     *logger.Logger
	cache      *storage.DB
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	graph      *kb.Client
	sessions   *dialog.Manager
	limiter    *ratelimit.SessionLimiter
	engine     *qa.Engine
	apiHandler *httpapi.Handler
	server     *http.Server
	wg         sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithRemote(cfg.LogLevel, logger.RemoteOptions{
		Token:    cfg.BetterStackToken,
		Endpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "scholar-qa-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Set as default logger so package-level slog.*Context() calls pick up
	// session and request IDs via ContextHandler.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: "production",
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Error tracking initialization failed")
	} else if sentry.IsEnabled() {
		log.Info("Error tracking enabled")
	}

	cache, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("cache database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).WithField("cache_ttl", cfg.CacheTTL).Info("Cache database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	graph, err := kb.NewClient(ctx, kb.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, log, kb.WithMetrics(m), kb.WithCache(cache))
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("knowledge graph: %w", err)
	}

	sessions := dialog.NewManager(dialog.ManagerConfig{
		TTL:         cfg.QA.SessionTTL,
		SweepPeriod: cfg.QA.SessionTTL,
	})
	sessions.OnUpdate(m.SetActiveSessions)

	limiter := ratelimit.NewSessionLimiter(ratelimit.SessionLimiterConfig{
		Burst:         cfg.QA.SessionRateLimitBurst,
		PerSecond:     cfg.QA.SessionRateLimitPerSecond,
		CleanupPeriod: cfg.QA.SessionTTL,
	})
	limiter.OnDrop(func() { m.RecordRateLimitDrop("session") })

	norm := field.NewNormalizer()
	suggest, err := field.NewSuggester(norm, cfg.QA.SuggestionCap)
	if err != nil {
		_ = graph.Close(ctx)
		_ = cache.Close()
		return nil, fmt.Errorf("field suggester: %w", err)
	}

	engine := qa.NewEngine(graph, norm, suggest, log, m, qa.Limits{
		FieldPubsLimit:  cfg.QA.FieldPubsLimit,
		RecentPubsLimit: cfg.QA.RecentPubsLimit,
		MoreInfoLimit:   cfg.QA.MoreInfoLimit,
	})

	apiHandler := httpapi.NewHandler(httpapi.HandlerConfig{
		Engine:        engine,
		Sessions:      sessions,
		Limiter:       limiter,
		Graph:         graph,
		Normalizer:    norm,
		Metrics:       m,
		Logger:        log,
		AnswerTimeout: cfg.QA.AnswerTimeout,
		FieldLimit:    10,
		EdgeLimit:     cfg.QA.NetworkEdgeLimit,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	app := &Application{
		cfg:        cfg,
		logger:     log,
		cache:      cache,
		metrics:    m,
		registry:   registry,
		graph:      graph,
		sessions:   sessions,
		limiter:    limiter,
		engine:     engine,
		apiHandler: apiHandler,
	}

	router.GET("/", app.serviceInfo)
	router.GET("/healthz", app.livenessCheck)
	router.HEAD("/healthz", app.livenessCheck)
	router.GET("/ready", app.readinessCheck)
	router.HEAD("/ready", app.readinessCheck)
	router.POST("/api/qa", apiHandler.HandleQA)
	router.GET("/api/stats/h-index", apiHandler.HandleHIndexStats)
	router.GET("/api/stats/fields", apiHandler.HandleFieldStats)
	router.GET("/api/stats/yearly", apiHandler.HandleYearlyStats)
	router.GET("/api/network/collaboration", apiHandler.HandleCollaborationNetwork)
	router.GET("/api/network/fields", apiHandler.HandleFieldNetwork)
	router.GET("/api/experts", apiHandler.HandleExperts)
	router.GET("/metrics",
		metricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: httpReadTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
	}

	log.Info("Initialization complete")
	return app, nil
}

func (a *Application) serviceInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "scholar-qa",
		"version": buildinfo.Version,
	})
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
	defer cancel()

	if err := a.graph.Ready(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: graph database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "graph database unavailable",
		})
		return
	}

	if err := a.cache.Ready(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: cache unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "cache unavailable",
		})
		return
	}

	cached, err := a.cache.Count(ctx)
	if err != nil {
		cached = -1
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "ready",
		"graph":           "connected",
		"cached_queries":  cached,
		"active_sessions": a.sessions.ActiveCount(),
	})
}

// Run starts the HTTP server and background jobs, then blocks until a
// shutdown signal arrives.
//
// Shutdown sequence:
//  1. Cancel context to stop background jobs
//  2. Wait for background jobs to finish
//  3. Stop the HTTP server, then close resources
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.cacheCleanup(ctx)
	}()
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.updateSessionMetrics(ctx)
	}()
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server and closes resources. Called after
// background jobs have completed.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Closing resources...")

	a.sessions.Stop()
	a.limiter.Stop()

	if err := a.graph.Close(shutdownCtx); err != nil {
		a.logger.WithError(err).WithField("component", "graph").Error("Component close error")
	}

	if err := a.cache.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "cache").Error("Component close error")
	}

	sentry.Flush(2 * time.Second)
	a.logger.Shutdown(5 * time.Second)

	a.logger.Info("Shutdown complete")
	return nil
}

// cacheCleanup periodically evicts expired query-result cache rows.
func (a *Application) cacheCleanup(ctx context.Context) {
	a.logger.Debug("Cache cleanup job started")
	defer a.logger.Debug("Cache cleanup job stopped")

	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Cache cleanup received shutdown signal")
			return
		case <-ticker.C:
			a.runCacheCleanup(ctx)
		}
	}
}

func (a *Application) runCacheCleanup(ctx context.Context) {
	start := time.Now()

	deleted, err := a.cache.DeleteExpired(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Failed to evict expired cache entries")
		return
	}

	a.logger.WithField("deleted", deleted).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Cache cleanup completed")
}

// updateSessionMetrics keeps the active-session gauge fresh between
// sweeper runs.
func (a *Application) updateSessionMetrics(ctx context.Context) {
	a.logger.Debug("Session metrics job started")
	defer a.logger.Debug("Session metrics job stopped")

	ticker := time.NewTicker(metricsUpdatePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Session metrics received shutdown signal")
			return
		case <-ticker.C:
			a.metrics.SetActiveSessions(a.sessions.ActiveCount())
		}
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404=Debug, 3xx/2xx=Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = c.GetHeader("X-Request-ID")
		}
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-Id")
		}
		if requestID != "" {
			ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("client_ip", c.ClientIP())

		if requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}

		if status >= 500 {
			entry.Error("HTTP request failed")
		} else if status >= 400 && status != 404 {
			entry.Warn("HTTP request rejected")
		} else if status == 404 {
			entry.Debug("HTTP request not found")
		} else {
			entry.Debug("HTTP request completed")
		}
	}
}

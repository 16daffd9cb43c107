package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnTengye/projectbrief/config"
	"github.com/AnTengye/projectbrief/handler"
	"github.com/AnTengye/projectbrief/middleware"
	"github.com/AnTengye/projectbrief/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// app holds the wired services the router exposes.
type app struct {
	cfg      *config.Config
	pipeline *service.Pipeline
	drafts   *service.DraftCache
	gate     *service.AdminGate
	checks   map[string]handler.Pinger
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Initialize services
	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		return fmt.Errorf("failed to initialize MINIO service: %w", err)
	}
	if err := minioSvc.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure MINIO bucket: %w", err)
	}

	records, closeStore, err := newRecordStore(ctx, &cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	enricher, err := newEnricher(ctx, &cfg.LLM)
	if err != nil {
		return err
	}

	policy, err := service.ParseStoragePolicy(cfg.Pipeline.StorageFailure)
	if err != nil {
		return err
	}

	pipeline := service.NewPipeline(service.NewPDFRenderer(), minioSvc, records, enricher,
		service.WithStoragePolicy(policy))

	a := &app{
		cfg:      cfg,
		pipeline: pipeline,
		drafts:   service.NewDraftCache(cfg.Drafts.Size, cfg.Drafts.TTL),
		gate:     service.NewAdminGate(cfg.Admin.Secret, records),
		checks:   map[string]handler.Pinger{"storage": minioSvc},
	}
	if p, ok := records.(handler.Pinger); ok {
		a.checks["store"] = p
	}
	if cfg.Admin.Secret == "" {
		slog.Warn("admin secret is empty, the admin listing is disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port,
			"store", cfg.Store.Driver, "llm", cfg.LLM.Provider, "storage_failure", policy.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}

// newRecordStore opens the configured driver. The returned func releases it.
func newRecordStore(ctx context.Context, cfg *config.StoreConfig) (service.RecordStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if err := service.MigratePostgres(cfg.DSN); err != nil {
			return nil, nil, err
		}
		pool, err := service.ConnectPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return service.NewPostgresRecordStore(pool), pool.Close, nil
	case config.DriverSQLite:
		db, err := service.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := service.NewSQLiteRecordStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	case config.DriverMemory:
		return service.NewMemoryRecordStore(cfg), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newEnricher(ctx context.Context, cfg *config.LLMConfig) (service.Enricher, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return service.NewOpenAIClient(cfg.APIKey,
			service.WithModel(cfg.Model),
			service.WithBaseURL(cfg.BaseURL),
			service.WithHTTPTimeout(cfg.Timeout),
		), nil
	case config.ProviderGemini:
		client, err := service.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderStub:
		slog.Warn("using stub LLM provider, drafted text is canned")
		return &service.StubEnricher{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func (a *app) router() *gin.Engine {
	submissions := handler.NewSubmissionHandler(a.pipeline, a.drafts)
	drafts := handler.NewDraftHandler(a.pipeline, a.drafts)
	admin := handler.NewAdminHandler(a.gate, a.cfg.Admin.QueryKey)
	health := handler.NewHealthHandler(a.checks)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger(a.cfg.Admin.QueryKey))
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())

	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(middleware.Session(&a.cfg.Session))
	{
		api.GET("/drafts", drafts.Get)
		api.DELETE("/drafts", drafts.Clear)
		api.POST("/submissions", submissions.Submit)
		api.POST("/preview", submissions.Preview)
		api.GET("/admin/submissions", admin.List)
	}

	// Routes that call the LLM share one limiter
	llm := api.Group("/")
	llm.Use(middleware.RateLimit(middleware.NewRateLimiter(a.cfg.RateLimit.Requests, a.cfg.RateLimit.Window)))
	{
		llm.POST("/drafts/summary", drafts.EnrichSummary)
		llm.POST("/drafts/use-cases", drafts.EnrichUseCases)
		llm.POST("/reports", submissions.Report)
	}

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, "+
			middleware.RequestIDHeader+", "+middleware.SessionHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader+", "+middleware.SessionHeader+", Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps API responses and generated PDFs out of caches
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}

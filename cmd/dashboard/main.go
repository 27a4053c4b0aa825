package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/app"
	"github.com/azariak/PolymarketDataVisualizer/internal/config"
	cronrunner "github.com/azariak/PolymarketDataVisualizer/internal/cron"
	"github.com/azariak/PolymarketDataVisualizer/internal/handler"
	"github.com/azariak/PolymarketDataVisualizer/internal/logger"
	"github.com/azariak/PolymarketDataVisualizer/internal/metrics"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"

	_ "github.com/azariak/PolymarketDataVisualizer/docs"
)

func main() {
	cfgPath := os.Getenv("PMD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PMD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	deps, err := app.Open(cfg, logger)
	if err != nil {
		logger.Fatal("init failed", zap.Error(err))
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := portfolio.NewSession(ctx, deps.Aggregator,
		portfolio.WithRecent(deps.Recent, metrics.RecentSummary),
		portfolio.WithSessionLogger(logger.Named("session")),
	)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORS())
	engine.Use(handler.AccessLog(logger.Named("http")))

	healthHandler := &handler.HealthHandler{Checks: deps.Checks}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	portfolioHandler := &handler.PortfolioHandler{
		Session:    session,
		Aggregator: deps.Aggregator,
		Recent:     deps.Recent,
		Exports:    deps.Exports,
		Options:    deps.Options,
		Logger:     logger.Named("http"),
	}
	portfolioHandler.Register(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var runner *cronrunner.Runner
	if cfg.Refresh.Enabled {
		runner = cronrunner.New(logger.Named("cron"), ctx)
		if _, err := runner.Add("refresh", cfg.Refresh.Spec, cronrunner.RefreshJob(session)); err != nil {
			logger.Warn("cron register refresh failed", zap.String("spec", cfg.Refresh.Spec), zap.Error(err))
		}
		runner.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	if runner != nil {
		runner.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

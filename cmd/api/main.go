package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "taxsync/api/swagger" // swagger docs
	"taxsync/internal/app"
	"taxsync/internal/config"
	"taxsync/internal/events"
	"taxsync/internal/handler"
	"taxsync/internal/logger"
	"taxsync/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           taxsync API
// @version         1.0
// @description     Keeps store carts and orders in sync with the Taxify tax service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Stage: cfg.AppEnv})
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, zlog, app.WithLiveFeed())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	go a.Hub.Run(ctx)

	scheduler, err := startRetryCron(ctx, cfg.Retry.Cron, a, zlog)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL, nats.Name("taxsync"))
		if err != nil {
			return err
		}
		defer conn.Close()

		sub := events.NewSubscriber(conn, a.Lifecycle, zlog)
		if err := sub.Start(cfg.NATS.Subject); err != nil {
			return err
		}
		defer func() { _ = sub.Stop() }()
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		zlog.Warn("JWT_SECRET is empty; using the development fallback")
		secret = []byte("default_super_secret_key")
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": a.Hub.ClientCount()})
	})

	root := router.Group("")
	handler.NewOrderHandler(a.Lifecycle, a.OrderSync, secret).RegisterRoutes(root)
	handler.NewCheckoutHandler(a.Checkout, secret).RegisterRoutes(root)
	handler.NewRetryHandler(a.Scheduler, a.Runner, secret).RegisterRoutes(root)
	handler.NewAdminHandler(a.Activation, a.TaxCodes, secret).RegisterRoutes(root)
	handler.NewTaxLogHandler(a.TaxLog, a.Hub, secret).RegisterRoutes(root)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	zlog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// startRetryCron fires due retries on spec. Runs never overlap.
func startRetryCron(ctx context.Context, spec string, a *app.App, zlog *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		summary, err := a.Runner.RunDue(ctx)
		if err != nil {
			zlog.Warn("retry run failed", zap.Error(err))
			return
		}
		if summary.Due > 0 {
			zlog.Info("retry run finished",
				zap.Int("due", summary.Due),
				zap.Int("completed", summary.Completed),
				zap.Int("failed", summary.Failed),
				zap.Int("skipped", summary.Skipped))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

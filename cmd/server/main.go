// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/accounting"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/config"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/currency"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/handler"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/httpclient"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/idempotency"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/marketplace"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/metrics"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/repository"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/internal/service"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/pkg/database"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/pkg/logger"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/pkg/middleware"
	"github.com/Phobia943/Etsy-Information-to-Sevdesk/pkg/redis"
)

func main() {
	cfg := config.MustLoad()

	log := logger.NewLogger("marketplace-sync")
	if cfg.Env == "development" {
		log = logger.NewDevelopmentLogger("marketplace-sync")
	}
	defer log.Sync()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Rate history persistence is optional: without a DSN the ops API
	// still converts, it just keeps no history.
	var history service.HistoryRepository
	if cfg.Database.Dsn != "" {
		db, err := database.NewPostgresDB(cfg.Database.Dsn)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		history = repository.NewRateRepository(db.DB)
	}

	store := buildIdempotencyStore(cfg, log)

	provider, err := currency.NewProvider(currency.Options{
		Name:        cfg.ExchangeRates.Provider,
		FixerAPIKey: cfg.ExchangeRates.FixerAPIKey,
		ManualRates: cfg.ExchangeRates.ManualRates,
	}, log)
	if err != nil {
		log.Fatal("failed to configure exchange rate provider", zap.Error(err))
	}

	retryPolicy := httpclient.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseBackoff: secondsToDuration(cfg.Retry.BaseBackoffSeconds),
		Multiplier:  cfg.Retry.BackoffMultiplier,
		MaxBackoff:  secondsToDuration(cfg.Retry.MaxBackoffSeconds),
	}

	marketplaceClient := marketplace.NewClient(marketplace.Config{
		BaseURL:           cfg.Marketplace.BaseURL,
		Timeout:           time.Duration(cfg.Marketplace.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Marketplace.RequestsPerSecond,
		ShopID:            cfg.Marketplace.ShopID,
		ClientID:          cfg.Marketplace.ClientID,
		ClientSecret:      cfg.Marketplace.ClientSecret,
		RefreshToken:      cfg.Marketplace.RefreshToken,
	}, retryPolicy, log)

	accountingClient := accounting.NewClient(accounting.Config{
		BaseURL:           cfg.Accounting.BaseURL,
		Timeout:           time.Duration(cfg.Accounting.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Accounting.RequestsPerSecond,
		APIToken:          cfg.Accounting.APIToken,
		DryRun:            cfg.Accounting.DryRun,
	}, retryPolicy, log)

	if cfg.Accounting.DryRun {
		log.Warn("dry run mode enabled, no accounting documents will be created")
	}

	conversionService := service.NewConversionService(provider, store, history, m, log)

	currencyHandler := handler.NewCurrencyHandler(conversionService, log)
	integrationHandler := handler.NewIntegrationHandler(marketplaceClient, accountingClient, m, log)

	router := setupRouter(currencyHandler, integrationHandler, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPServer.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go runSweeper(sweepCtx, conversionService, store, m, time.Duration(cfg.Idempotency.SweepIntervalMinutes)*time.Minute, log)

	go func() {
		log.Info("starting marketplace sync service", zap.String("port", cfg.HTTPServer.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func buildIdempotencyStore(cfg *config.Config, log *zap.Logger) idempotency.Store {
	ttl := time.Duration(cfg.Idempotency.TTLHours) * time.Hour

	switch cfg.Idempotency.Backend {
	case "redis":
		client := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		return idempotency.NewRedisStore(client, ttl, log)
	case "memory":
		return idempotency.NewMemoryStore(ttl, log)
	default:
		log.Fatal("unknown idempotency backend", zap.String("backend", cfg.Idempotency.Backend))
		return nil
	}
}

// runSweeper periodically removes expired idempotency entries and reports
// the store size gauge.
func runSweeper(ctx context.Context, svc *service.ConversionService, store idempotency.Store, m *metrics.Metrics, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.SweepIdempotencyKeys(ctx)
			if err != nil {
				log.Error("idempotency sweep failed", zap.Error(err))
				continue
			}
			if mem, ok := store.(*idempotency.MemoryStore); ok {
				m.IdempotencyStoreSize.Set(float64(mem.Size()))
			}
			if removed > 0 {
				log.Info("swept expired idempotency keys", zap.Int("removed", removed))
			}
		}
	}
}

func setupRouter(currencyHandler *handler.CurrencyHandler, integrationHandler *handler.IntegrationHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		currency := v1.Group("/currency")
		{
			currency.POST("/convert", currencyHandler.ConvertCurrency)
			currency.GET("/rates/:from/:to", currencyHandler.GetRate)
			currency.GET("/rates/history/:from/:to", currencyHandler.GetRateHistory)
			currency.GET("/supported", currencyHandler.GetSupportedCurrencies)
		}

		mp := v1.Group("/marketplace")
		{
			mp.GET("/shop", integrationHandler.GetShop)
			mp.GET("/orders", integrationHandler.ListOrders)
			mp.GET("/payouts", integrationHandler.ListPayouts)
			mp.GET("/ledger-entries", integrationHandler.ListLedgerEntries)
		}

		acc := v1.Group("/accounting")
		{
			acc.GET("/contacts", integrationHandler.FindContact)
		}

		idem := v1.Group("/idempotency")
		{
			idem.POST("/sweep", currencyHandler.SweepIdempotencyKeys)
		}
	}

	return router
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

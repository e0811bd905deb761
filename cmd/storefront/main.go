package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/petherEm/gibbarosa-io-v-1/internal/cart"
	"github.com/petherEm/gibbarosa-io-v-1/internal/catalog"
	"github.com/petherEm/gibbarosa-io-v-1/internal/checkout"
	"github.com/petherEm/gibbarosa-io-v-1/internal/config"
	"github.com/petherEm/gibbarosa-io-v-1/internal/gateway"
	"github.com/petherEm/gibbarosa-io-v-1/internal/httpx"
	"github.com/petherEm/gibbarosa-io-v-1/internal/order"
	"github.com/petherEm/gibbarosa-io-v-1/internal/webhook"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	var cartStore cart.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		cancel()
		cartStore = cart.NewRedisStore(rdb)
		logger.Info("cart store: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		cartStore = cart.NewMemoryStore()
		logger.Warn("REDIS_ADDR not set, carts are held in memory only")
	}

	products := catalog.NewPGRepo(pool)
	orders := order.NewPGRepo(pool)
	gw := gateway.NewHTTPClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey)
	initiator := checkout.NewInitiator(products, gw, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpx.RequestID())
	router.Use(httpx.Logger(logger))
	router.Use(httpx.Metrics())
	router.Use(httpx.CORS(cfg.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", httpx.PrometheusHandler())

	catalog.NewHandler(products, logger).Register(router)
	cart.NewHandler(cartStore, products, logger).Register(router)
	checkout.NewHandler(products, initiator, logger).Register(router)
	order.NewHandler(orders, logger).Register(router)
	webhook.NewHandler(cfg.PaymentWebhookSecret, gw, orders, products, logger).Register(router)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("storefront listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

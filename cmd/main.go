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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/events"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/gateway"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/handler"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/repository"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/internal/service"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/pkg/config"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/pkg/metrics"
	"github.com/UMC-9th-project/myform-reform-BE-sub000/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("payment_gateway", cfg.PaymentGateway),
		zap.String("kafka_brokers", cfg.KafkaBrokers))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	cancel()
	defer pool.Close()

	producer := events.NewProducer(cfg.KafkaBrokers, logger)
	if producer != nil {
		defer producer.Close()
	}

	db := repository.NewPool(pool)
	itemRepo := repository.NewItemRepository()
	stockRepo := repository.NewStockRepository()
	receiptRepo := repository.NewReceiptRepository()
	orderRepo := repository.NewOrderRepository()
	cartRepo := repository.NewCartRepository()
	addressRepo := repository.NewAddressRepository()

	tokens := gateway.NewAPITokenSource(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.PaymentSecret)
	payClient := gateway.NewClient(cfg.PaymentBaseURL, tokens, logger)

	m := metrics.New("reform")
	payClient.OnAttempts = func(n int) { m.GatewayAttempts.Observe(float64(n)) }

	checkoutService := service.NewCheckoutService(
		db, itemRepo, stockRepo, receiptRepo, orderRepo, cartRepo, addressRepo, producer, logger)
	settlementService := service.NewSettlementService(
		db, payClient, receiptRepo, orderRepo, stockRepo, producer, cfg.PaymentGateway, logger)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService, m, logger)
	paymentHandler := handler.NewPaymentHandler(settlementService, cfg.VerifyTimeout(), m, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders/sheet", checkoutHandler.GetOrderSheet)
		v1.POST("/orders", checkoutHandler.CreateOrder)
		v1.POST("/orders/cart", checkoutHandler.CreateCartOrder)
		v1.GET("/orders/:id", checkoutHandler.GetOrder)
		v1.POST("/payments/verify", paymentHandler.Verify)
		v1.POST("/payments/webhook", paymentHandler.Webhook)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-settlement"})
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

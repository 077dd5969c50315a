package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/tilopay-connector/internal/api"
	"github.com/akylbek/payment-system/tilopay-connector/internal/config"
	"github.com/akylbek/payment-system/tilopay-connector/internal/events"
	"github.com/akylbek/payment-system/tilopay-connector/internal/handlers"
	"github.com/akylbek/payment-system/tilopay-connector/internal/metrics"
	"github.com/akylbek/payment-system/tilopay-connector/internal/repository"
	"github.com/akylbek/payment-system/tilopay-connector/internal/service"
	"github.com/akylbek/payment-system/tilopay-connector/internal/telemetry"
	"github.com/akylbek/payment-system/tilopay-connector/internal/tilopay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the callback receiver, inline form API and transaction intake",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	tel, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer tel.Shutdown(context.Background())
	logger := tel.Logger

	logger.Info("Starting Tilopay connector")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database is not reachable: %w", err)
	}

	transactions := repository.NewTransactionRepository(db)
	if err := transactions.InitDB(); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	currencies := repository.NewCurrencyRepository(db)
	orders := repository.NewOrderRepository(db)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	// Connect to Kafka
	stateWriter := events.NewStateWriter(cfg.KafkaBrokers)
	defer stateWriter.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	notifications := service.NewNotificationService(
		service.NewLocator(transactions, tel.Tracer, logger),
		service.ReconcileChain{
			service.NewBaseReconciler(logger),
			service.NewTilopayReconciler(currencies, tel.Tracer, logger),
		},
		transactions,
		repository.NewRedisLocker(redisClient),
		events.NewKafkaStatePublisher(logger, stateWriter),
		events.NewNatsStatusNotifier(nc),
		m,
		logger,
	)

	// Mirror checkout transactions into the local store
	txSync := service.NewTransactionSync(transactions, currencies, logger)
	go func() {
		if err := txSync.Run(ctx, service.NewTransactionReader(cfg.KafkaBrokers)); err != nil {
			logger.Error("Transaction sync stopped", zap.Error(err))
		}
	}()

	client := tilopay.NewClient(cfg.TilopayAPIURL, tilopay.Credentials{
		APIUser:  cfg.TilopayAPIUser,
		Password: cfg.TilopayAPIPassword,
		Key:      cfg.TilopayAPIKey,
	}, m, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Handlers{
		Notification: handlers.NewNotificationHandler(notifications, cfg.StatusPath, logger),
		PaymentState: handlers.NewPaymentStateHandler(transactions, logger),
		InlineForm:   handlers.NewInlineFormHandler(orders, transactions, client, cfg.BaseURL, logger),
	}, prometheus.DefaultGatherer, tel.Tracer, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Tilopay connector starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}

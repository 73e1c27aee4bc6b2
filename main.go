package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logging"
	"storefront/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, logCloser := logging.New(logging.Options{Service: "storefront", Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()

	// --- Database ---
	db, err := database.Open(cfg)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.EventsEnabled() {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
			Queue:    cfg.RabbitMQQueue,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize RabbitMQ client", slog.Any("error", err))
			os.Exit(1)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		logger.Info("RABBITMQ_URL not set, order events are disabled")
	}

	app := newApp(cfg, db, publisher, logger)

	if mqClient != nil {
		if err := mqClient.ConsumeOrderEvents(auditOrderEvent(logger)); err != nil {
			logger.Error("failed to start RabbitMQ consumer", slog.Any("error", err))
		}
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", slog.String("addr", cfg.AppPort))
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Error("server failed", slog.Any("error", err))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.RequestTimeout); err != nil {
		logger.Error("error during Fiber shutdown", slog.Any("error", err))
	}
	logger.Info("server gracefully stopped")
}

// newApp wires repositories, services and handlers into a Fiber app.
// publisher may be nil, in which case order events are dropped.
func newApp(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher, logger *slog.Logger) *fiber.App {
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)
	tx := repositories.NewGORMTransactor(db)

	events := services.NewOrderEvents(publisher, cfg.RabbitMQExchange, logger)
	cartService := services.NewCartService(tx, cartRepo, productRepo, logger)
	svc := handlers.Services{
		Auth:      services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, logger),
		Products:  services.NewProductService(tx, productRepo, cartService, logger),
		Addresses: services.NewAddressService(addressRepo),
		Carts:     cartService,
		Checkout:  services.NewCheckoutService(tx, cartRepo, productRepo, addressRepo, orderRepo, events, logger),
		Orders:    services.NewOrderService(orderRepo, userRepo, productRepo, events, logger),
	}

	app := fiber.New(fiber.Config{AppName: "storefront"})
	app.Use(fiberlogger.New())
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.RequestTimeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		status, code, dbState := "healthy", fiber.StatusOK, "up"
		if err := ping(c.UserContext(), db); err != nil {
			logger.Warn("health check failed", slog.Any("error", err))
			status, code, dbState = "unhealthy", fiber.StatusServiceUnavailable, "down"
		}
		eventState := "disabled"
		if publisher != nil {
			eventState = "enabled"
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbState,
			"events":   eventState,
		})
	})

	handlers.RegisterRoutes(app, svc, logger)
	return app
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// auditOrderEvent logs every order event read back from the queue.
func auditOrderEvent(logger *slog.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event struct {
			OrderID string `json:"orderId"`
			Status  string `json:"orderStatus"`
		}
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		if event.OrderID == "" {
			return fmt.Errorf("order event %d has no orderId", msg.DeliveryTag)
		}
		logger.Info("order event received",
			slog.String("routing_key", msg.RoutingKey),
			slog.String("order_id", event.OrderID),
			slog.String("status", event.Status))
		return nil
	}
}

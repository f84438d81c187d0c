package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vendora/vendora/config"
	"github.com/vendora/vendora/internal/auth"
	"github.com/vendora/vendora/internal/events"
	handler "github.com/vendora/vendora/internal/handler/http"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/middleware"
	"github.com/vendora/vendora/internal/models"
	"github.com/vendora/vendora/internal/repository"
	"github.com/vendora/vendora/internal/repository/postgres"
	"github.com/vendora/vendora/internal/service"
	"github.com/vendora/vendora/internal/worker"
	"go.uber.org/zap"
)

const defaultTokenKey = "f53ac685bbceebd75043e6be2e06ee07"

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKeyHex := cfg.TokenKey
	if tokenKeyHex == "" {
		tokenKeyHex = defaultTokenKey
	}
	tokenKey, err := hex.DecodeString(tokenKeyHex)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// dependency injection
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	shopRepo := repository.NewShopRepository(db)
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)

	orderService := service.NewOrderService(orderRepo, productRepo, shopRepo, userRepo)
	orderHandler := handler.NewOrderHandler(orderService)
	healthHandler := handler.NewHealthHandler(db)

	// outbox publisher
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	defer publisher.Close()

	if publisher.Enabled() {
		outbox := worker.NewOutboxProcessor(eventRepo, publisher)
		go outbox.ProcessEvents(ctx)
	}

	metrics := middleware.NewMetrics()

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))
	router.Use(metrics.Handler)

	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler.Healthz())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(handler.AuthMiddleware(token))
		group.Post("/api/orders", orderHandler.CreateOrder())
		group.Get("/api/orders", orderHandler.ListOrders())
		group.Get("/api/orders/{id}", orderHandler.GetOrder())
		group.With(handler.RequireRoles(models.RoleVendor, models.RoleStaff, models.RoleDelivery, models.RoleAdmin)).
			Patch("/api/orders/{id}/status", orderHandler.UpdateOrderStatus())
		group.With(handler.RequireRoles(models.RoleVendor, models.RoleStaff, models.RoleAdmin)).
			Patch("/api/orders/{id}/assign-delivery", orderHandler.AssignDelivery())
		group.With(handler.RequireRoles(models.RoleVendor, models.RoleStaff, models.RoleAdmin)).
			Patch("/api/orders/{id}/payment", orderHandler.UpdatePayment())
	})

	logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shophub/pkg/account"
	"github.com/example/shophub/pkg/catalog"
	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/discovery"
	"github.com/example/shophub/pkg/grpc"
	"github.com/example/shophub/pkg/httpapi"
	"github.com/example/shophub/pkg/jobs"
	"github.com/example/shophub/pkg/order"
	"github.com/example/shophub/pkg/queue"
	"github.com/example/shophub/pkg/repository"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/catalog-config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting catalog service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.HTTP.Port))

	// Document store
	mongo, err := repository.NewMongo(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	products := repository.NewProductRepository(mongo)
	orders := repository.NewOrderRepository(mongo)

	// Search mirror
	mirror := repository.NewRedisRepository(&cfg.Redis)

	// Connect to etcd for service discovery
	registry, err := discovery.New(&cfg.Etcd)
	if err != nil {
		logger.Fatal("Failed to connect to etcd", zap.Error(err))
	}
	defer registry.Close()

	// Account service clients
	clients := grpc.NewClientManager(cfg, logger, registry)
	if err := clients.Connect(); err != nil {
		logger.Fatal("Failed to connect to account service", zap.Error(err))
	}
	defer clients.Close()

	catalogSvc := catalog.NewService(products, mirror, logger)
	orderSvc := order.NewService(orders, mongo, catalogSvc, clients, clients, logger)

	ctx := context.Background()

	// Ping dependencies
	if err := mongo.Ping(ctx); err != nil {
		logger.Warn("MongoDB ping failed", zap.Error(err))
	} else {
		logger.Info("MongoDB connected successfully")
	}

	if err := catalogSvc.RebuildMirror(ctx); err != nil {
		logger.Warn("Search mirror rebuild failed", zap.Error(err))
	} else {
		logger.Info("Search mirror rebuilt")
	}

	// Register service
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.HTTP.Host,
		Port: cfg.HTTP.Port,
	}
	if err := registry.Register(ctx, instance); err != nil {
		logger.Fatal("Failed to register service", zap.Error(err))
	}

	logger.Info("Service registered in etcd",
		zap.String("name", instance.Name),
		zap.String("address", instance.Addr()))

	// Top spender queue and daily job
	events, err := queue.New(&cfg.AMQP, logger)
	if err != nil {
		logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
	}
	defer events.Close()

	job := jobs.NewTopSpender(orders, events, cfg.Reward.Schedule, logger)
	if err := job.Start(); err != nil {
		logger.Fatal("Failed to schedule top spender job", zap.Error(err))
	}
	defer job.Stop()

	// HTTP API
	tokens := account.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	api := httpapi.NewCatalogAPI(cfg, logger, catalogSvc, orderSvc, tokens)
	api.SetupRoutes()

	serverErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if err := registry.Deregister(ctx, instance); err != nil {
		logger.Error("Failed to deregister service", zap.Error(err))
	}

	logger.Info("Service stopped")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shophub/pkg/account"
	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/discovery"
	"github.com/example/shophub/pkg/grpc"
	"github.com/example/shophub/pkg/httpapi"
	"github.com/example/shophub/pkg/repository"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/account-config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting account service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Relational store
	db, err := repository.NewMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}

	// User info cache
	cache := repository.NewRedisRepository(&cfg.Redis)

	tokens := account.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	users := account.NewUserService(db, repository.NewUserRepository(db), cache, tokens, logger)
	bank := account.NewBankService(db, repository.NewBankAccountRepository(db), repository.NewUserRepository(db), logger)

	// Connect to etcd for service discovery
	registry, err := discovery.New(&cfg.Etcd)
	if err != nil {
		logger.Fatal("Failed to connect to etcd", zap.Error(err))
	}
	defer registry.Close()

	ctx := context.Background()
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	if err := registry.Register(ctx, instance); err != nil {
		logger.Fatal("Failed to register service", zap.Error(err))
	}

	logger.Info("Service registered in etcd",
		zap.String("name", instance.Name),
		zap.String("address", instance.Addr()))

	// Start gRPC server and HTTP API
	grpcServer := grpc.NewAccountServer(cfg, logger, users, bank)
	api := httpapi.NewAccountAPI(cfg, logger, users, bank, tokens)
	api.SetupRoutes()

	serverErr := make(chan error, 2)
	go func() {
		if err := grpcServer.Start(); err != nil {
			serverErr <- err
		}
	}()
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

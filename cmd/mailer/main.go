package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/example/shophub/pkg/config"
	"github.com/example/shophub/pkg/discovery"
	"github.com/example/shophub/pkg/grpc"
	"github.com/example/shophub/pkg/mailer"
	"github.com/example/shophub/pkg/queue"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/mailer-config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting mailer service")

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

	// Top spender queue
	events, err := queue.New(&cfg.AMQP, logger)
	if err != nil {
		logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
	}
	defer events.Close()

	rewarder := mailer.NewRewarder(clients, mailer.NewSender(&cfg.SMTP), &cfg.Reward, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Consuming top spender events", zap.String("queue", cfg.AMQP.Queue))

	if err := events.ConsumeMostSpentUser(ctx, rewarder.Handle); err != nil && ctx.Err() == nil {
		logger.Fatal("Consumer error", zap.Error(err))
	}

	logger.Info("Service stopped")
}

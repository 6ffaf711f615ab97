package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/oakmart/go-marketplace-orders/internal/audit"
	"github.com/oakmart/go-marketplace-orders/internal/config"
	kafkax "github.com/oakmart/go-marketplace-orders/internal/kafka"
	"github.com/oakmart/go-marketplace-orders/internal/orders"
	"github.com/oakmart/go-marketplace-orders/internal/postgres"
	"github.com/oakmart/go-marketplace-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName+"-auditor").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &audit.Service{
		DB:          db,
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-auditor",
		Log:         log,
	}

	group := getenv("AUDITOR_GROUP", "order-auditor")
	workers := mustAtoi(os.Getenv("AUDITOR_WORKERS"), "4")

	// one consumer per lifecycle topic, all feeding the same handler
	for _, topic := range orders.LifecycleTopics() {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers, log)
		go func(topic string) {
			log.Info().Str("group", group).Str("topic", topic).Int("workers", workers).Msg("consumer started")
			if err := cons.Start(ctx, svc.HandleEvent); err != nil {
				log.Error().Err(err).Str("topic", topic).Msg("consumer exit")
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info().Msg("shutting down consumers...")
	case <-ctx.Done():
	}
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

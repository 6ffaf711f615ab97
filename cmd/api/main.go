package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/oakmart/go-marketplace-orders/internal/config"
	"github.com/oakmart/go-marketplace-orders/internal/httpx"
	kafkax "github.com/oakmart/go-marketplace-orders/internal/kafka"
	"github.com/oakmart/go-marketplace-orders/internal/orders"
	"github.com/oakmart/go-marketplace-orders/internal/postgres"
	"github.com/oakmart/go-marketplace-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()

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

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	store := &orders.PGStore{DB: db}
	svc := orders.NewService(store, orders.NewEmitter(prod, cfg.ServiceName), log)

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Svc:   svc,
		Query: orders.NewQuery(store),
		Redis: rdb,
		Log:   log,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	cancel()
	prod.WaitClosed()
}

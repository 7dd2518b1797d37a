package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hongminglow/expense-api/internal/config"
	"github.com/hongminglow/expense-api/internal/events"
	"github.com/hongminglow/expense-api/internal/logging"
	"github.com/hongminglow/expense-api/internal/server"
	"github.com/hongminglow/expense-api/internal/storage/backend"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootstrap := logging.New(zerolog.InfoLevel, false)
		bootstrap.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	zerolog.DefaultContextLogger = &logger
	if envErr != nil {
		logger.Debug().Msg("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init storage")
	}
	defer store.Close()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	srv := server.New(cfg, store, publisher, logger)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.Env).Msg("expense API listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// newPublisher falls back to dropping events when the broker is unset or unreachable.
func newPublisher(cfg config.Config, logger zerolog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to connect to AMQP broker, continuing without events")
		return events.Nop{}
	}
	logger.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing expense events")
	return publisher
}

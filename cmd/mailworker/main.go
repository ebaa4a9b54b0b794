package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"notebook_service/internal/config"
	sl "notebook_service/internal/lib/logger"
	"notebook_service/internal/mailer"
	"notebook_service/internal/models"
	"notebook_service/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad("./config/config.yaml")
	log := setupLogger(cfg.Env)

	log.Info("Starting mail worker", slog.String("env", cfg.Env))

	startConsumer(ctx, cfg, log)
}

func startConsumer(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to init rabbitmq", sl.Err(err))
		return
	}
	defer r.Close()

	m := &mailer.Mailer{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		err := r.StartReading(ctx, func(msg []byte) {
			var emailMsg models.EmailMessage
			if err := json.Unmarshal(msg, &emailMsg); err != nil {
				log.Error("failed to unmarshal message", sl.Err(err))
				return
			}

			err := m.Send(emailMsg.Email, emailMsg.Subject, mailer.CodeBody(emailMsg.Code))
			if err != nil {
				log.Error("failed to send message", sl.Err(err))
				return
			}

			log.Info("message sent successfully", slog.String("to", emailMsg.Email))
		})
		if err != nil {
			log.Error("failed to start reading", sl.Err(err))
			return
		}
	}()

	log.Info("consumer successfully started")

	select {
	case <-ctx.Done():
		log.Info("shutting down consumer...")
	case <-done:
		log.Info("consumer finished the work")
	}

	log.Info("service gracefully stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

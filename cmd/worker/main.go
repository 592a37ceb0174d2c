package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/crm-campaign-backend/internal/archive"
	"github.com/unclebandit/crm-campaign-backend/internal/config"
	"github.com/unclebandit/crm-campaign-backend/internal/db"
	"github.com/unclebandit/crm-campaign-backend/internal/logging"
	"github.com/unclebandit/crm-campaign-backend/internal/queue"
	"github.com/unclebandit/crm-campaign-backend/internal/repository"
	"github.com/unclebandit/crm-campaign-backend/internal/service"
)

// The worker drains dispatch events published by the server and archives them.
func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.AMQPUrl == "" {
		logrus.Fatal("AMQP_URL is required for the worker")
	}

	// Connect to DB
	conn, err := db.Init(cfg.DBUrl, cfg.DBMaxOpenConns)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to DB")
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archiver service.Archiver
	if cfg.MinIOEnabled() {
		m, err := archive.NewMinIOArchiver(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket)
		if err != nil {
			logrus.WithError(err).Fatal("failed to connect to MinIO")
		}
		archiver = m
	}

	worker := service.NewArchiveWorker(&repository.DispatchEventRepository{DB: conn}, archiver)

	// Connect to RabbitMQ
	q, err := queue.DialAMQP(cfg.AMQPUrl)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer q.Close()

	if err := q.Subscribe(cfg.DispatchQueue, worker.Handle); err != nil {
		logrus.WithError(err).Fatal("Failed to register consumer")
	}

	logrus.WithField("queue", cfg.DispatchQueue).Info("Worker running, waiting for messages...")
	<-ctx.Done()
	logrus.Info("worker stopping")
}

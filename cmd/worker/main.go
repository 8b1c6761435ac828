package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/avolkov/revtrack/internal/notify"
	"github.com/avolkov/revtrack/internal/tasks"
	"github.com/avolkov/revtrack/pkg/config"
	"github.com/avolkov/revtrack/pkg/queue"
	"github.com/avolkov/revtrack/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting revtrack worker")

	mailer := notify.NewMailer(&cfg.SMTP, cfg.App.URL, logger)

	srv := queue.NewServer(&cfg.Redis, 10)

	handler := tasks.NewHandler(mailer, logger)

	mux := asynq.NewServeMux()
	handler.Register(mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	<-ctx.Done()

	logger.Info("worker stopped")
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/revtrack/internal/api"
	"github.com/avolkov/revtrack/internal/auth"
	"github.com/avolkov/revtrack/internal/database"
	"github.com/avolkov/revtrack/internal/invitations"
	"github.com/avolkov/revtrack/internal/members"
	"github.com/avolkov/revtrack/internal/notify"
	"github.com/avolkov/revtrack/internal/tasks"
	"github.com/avolkov/revtrack/internal/tenants"
	"github.com/avolkov/revtrack/pkg/config"
	"github.com/avolkov/revtrack/pkg/queue"
	"github.com/avolkov/revtrack/pkg/util"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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

	logger.Info("starting revtrack server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, signup emails will be reported inline", "error", err)
		redisClient = nil
	}

	var asynqClient *asynq.Client
	var signupMailer auth.SignupMailer
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		signupMailer = tasks.NewEnqueuer(asynqClient)
	}

	mailer := notify.NewMailer(&cfg.SMTP, cfg.App.URL, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, signupMailer, mailer)
	invitationService := invitations.NewService(db, mailer)
	memberService := members.NewService(db)
	tenantService := tenants.NewService(db)

	router := api.NewRouter(api.RouterConfig{
		DB:                db,
		Redis:             redisClient,
		Logger:            logger,
		JWTService:        jwtService,
		AuthService:       authService,
		InvitationService: invitationService,
		MemberService:     memberService,
		TenantService:     tenantService,
		RateLimitReqs:     cfg.RateLimit.Requests,
		RateLimitSecs:     cfg.RateLimit.WindowSeconds,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}

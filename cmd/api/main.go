package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-todo-auth/internal/config"
	"github.com/go-todo-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-todo-auth/internal/infrastructure/jwt"
	"github.com/go-todo-auth/internal/infrastructure/smtp"
	"github.com/go-todo-auth/internal/infrastructure/sns"
	"github.com/go-todo-auth/internal/pkg/logger"
	"github.com/go-todo-auth/internal/pkg/password"
	transporthttp "github.com/go-todo-auth/internal/transport/http"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		zlog.Fatal("init dynamodb client", zap.Error(err))
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, zlog)

	hasher, err := password.NewHasher(cfg.PasswordPepper, password.DefaultParams)
	if err != nil {
		zlog.Fatal("init password hasher", zap.Error(err))
	}
	jwtProvider, err := jwtinfra.NewProvider(cfg.JWTSecret)
	if err != nil {
		zlog.Fatal("init jwt provider", zap.Error(err))
	}

	// SNS SMS sender (optional; phone OTPs are then stored but not delivered).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		zlog.Warn("SNS sender not available", zap.Error(err))
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, cfg.DynamoTables.UserIdentifiers),
		OTPRepo:     dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.UserOTPs, cfg.DynamoTables.Users),
		TokenRepo:   dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.UserTokens),
		TodoRepo:    dynamo.NewTodoRepo(dynamoClient, cfg.DynamoTables.Todos),
		Hasher:      hasher,
		JWTProvider: jwtProvider,
		Mailer:      smtp.NewMailer(cfg),
		SMSSender:   smsSender,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps, zlog),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
		return
	}
	zlog.Info("server stopped")
}

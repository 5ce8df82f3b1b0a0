package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"auth-api/internal/config"
	"auth-api/internal/db"
	"auth-api/internal/email"
	apihttp "auth-api/internal/http"
	"auth-api/internal/oauth"
	"auth-api/internal/repository"
	"auth-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)

	var tokenStore service.TokenStore = repository.NewPgTokenStore(pool)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisTokenStore(redisClient)
		}
		cancel()
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS, cfg.AppBaseURL)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	tokenSvc := service.NewTokenService(cfg.JWTSecret, service.TokenTTLs{
		Access:      time.Duration(cfg.JWTAccessTTLMinutes) * time.Minute,
		Refresh:     time.Duration(cfg.JWTRefreshTTLDays) * 24 * time.Hour,
		Reset:       time.Duration(cfg.JWTResetTTLMinutes) * time.Minute,
		VerifyEmail: time.Duration(cfg.JWTVerifyTTLMinutes) * time.Minute,
	}, tokenStore)

	userSvc := service.NewUserService(logger, userRepo)
	linker := service.NewIdentityLinker(logger, userSvc)
	authSvc := service.NewAuthService(logger, userSvc, tokenSvc, tokenStore, linker, emailSender)
	googleProvider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)

	go service.StartTokenCleanup(ctx, logger, tokenStore, time.Duration(cfg.TokenCleanupIntervalMinutes)*time.Minute)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, userSvc, googleProvider)
	router := apihttp.NewRouter(logger, authHandler, tokenSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

package main

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/artmint/gatehouse/adapters/events"
	"github.com/artmint/gatehouse/adapters/store"
	"github.com/artmint/gatehouse/adapters/tokenizer"
	"github.com/artmint/gatehouse/internal/config"
	"github.com/artmint/gatehouse/ports"
	"github.com/artmint/gatehouse/service"
	"github.com/artmint/gatehouse/transport/http"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Parse Redis URL and create client
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)

	// Initialize Watermill Redis publisher
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Fatal("failed to create Redis publisher", zap.Error(err))
	}

	var userStore ports.UserStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to create Postgres pool", zap.Error(err))
		}
		defer pool.Close()

		pg, err := store.NewPostgresStore(ctx, pool)
		if err != nil {
			logger.Fatal("failed to initialize Postgres store", zap.Error(err))
		}
		userStore = pg
		logger.Info("database connected successfully")
	} else {
		userStore = store.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	authService := service.NewAuthService(
		userStore,
		tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret)),
		events.NewWatermillPublisher(publisher),
		store.NewRedisNonceLog(redisClient),
		logger.Named("auth"),
	)

	router := http.SetupRouter(authService, logger.Named("http"))

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err := router.Run(cfg.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

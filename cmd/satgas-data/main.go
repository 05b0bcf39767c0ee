package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"satgas-data/internal/common/database"
	"satgas-data/internal/common/logger"
	redisclient "satgas-data/internal/common/redis"
	"satgas-data/internal/config"
	"satgas-data/internal/events"
	"satgas-data/internal/geolocator"
	httpapi "satgas-data/internal/http"
	"satgas-data/internal/repository"
	"satgas-data/internal/service"
	"satgas-data/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "satgas-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	redisClient, err := redisclient.NewClient(context.Background(), &cfg.Redis, 3*time.Second)
	if err != nil {
		log.Warn("Redis unavailable, geocode cache and account events will fail until it recovers", zap.Error(err))
	}
	kv := store.NewRedisKV(redisClient, cfg.CachePrefix)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher = events.NewStreamPublisher(redisClient, cfg.Events.Stream, cfg.Events.MaxLen)
	}

	locator := geolocator.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, cfg.Geocoder.Timeout, kv, cfg.Geocoder.CacheTTL, log)

	usersRepo := repository.NewPostgresUsersRepository(db)
	adminsRepo := repository.NewPostgresAdminsRepository(db)
	authRepo := repository.NewPostgresAuthRepository(db)

	userService := service.NewUserService(
		usersRepo,
		repository.NewPostgresCitiesRepository(db),
		repository.NewPostgresVillagesRepository(db),
		authRepo,
		locator,
		publisher,
		log,
	)

	router := httpapi.NewRouter(log)
	router.RegisterUserRoutes(httpapi.NewUserHandler(
		userService,
		httpapi.NewAuthenticator(authRepo, usersRepo, adminsRepo),
		log,
	))

	srv := service.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP server stopped", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Warn("Failed to close redis client", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
}

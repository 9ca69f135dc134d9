package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rhythm-flow/internal/catalog"
	"rhythm-flow/internal/config"
	apihttp "rhythm-flow/internal/http"
	"rhythm-flow/internal/repository"
	"rhythm-flow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	tokenSvc, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL())
	if err != nil {
		logger.Fatal("token service", zap.Error(err))
	}

	accountRepo := repository.NewJSONAccountRepository(repository.NewFileDocument(cfg.UsersFile))
	collectionRepo := repository.NewJSONCollectionRepository(repository.NewFileDocument(cfg.CollectionsFile))
	accountSvc := service.NewAccountService(logger, accountRepo)
	collectionSvc := service.NewCollectionService(collectionRepo)

	var catalogCache catalog.Cache = catalog.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory catalog cache", zap.Error(err))
		} else {
			catalogCache = catalog.NewRedisCache(redisClient)
		}
		cancel()
	}
	catalogClient := catalog.NewHTTPClient(cfg.CatalogBaseURL, cfg.CatalogTimeout(), logger,
		catalog.WithCache(catalogCache, cfg.CatalogCacheTTL()),
	)

	dev := cfg.IsDevelopment()
	router := apihttp.NewRouter(logger,
		apihttp.RouterConfig{CORSOrigins: cfg.CORSOrigins},
		tokenSvc,
		apihttp.NewAccountHandler(logger, accountSvc, tokenSvc, dev),
		apihttp.NewCollectionHandler(logger, collectionSvc, dev),
		apihttp.NewCatalogHandler(logger, catalogClient, dev),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("users_file", cfg.UsersFile),
		zap.String("collections_file", cfg.CollectionsFile),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

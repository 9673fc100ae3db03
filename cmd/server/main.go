package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dkowalsky/favourites-api/internal/api"
	"github.com/dkowalsky/favourites-api/internal/auth"
	"github.com/dkowalsky/favourites-api/internal/store"
	"github.com/dkowalsky/favourites-api/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	userStore, cleanup, err := connectStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store: failed to connect", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer cleanup()

	codec, err := auth.NewCodec(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("auth: failed to initialise codec", zap.Error(err))
	}

	authService := auth.NewService(codec, userStore)

	router := setupRouter(authService, codec, userStore, logger)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}

func connectStore(ctx context.Context, cfg *utils.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case utils.StoreDriverPostgres:
		postgres, err := store.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Ping(ctx); err != nil {
			postgres.Close()
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx); err != nil {
			postgres.Close()
			return nil, nil, err
		}
		return postgres, postgres.Close, nil
	default:
		mongoStore, err := store.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		if err := mongoStore.Ping(ctx); err != nil {
			mongoStore.Close(context.Background())
			return nil, nil, err
		}
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			mongoStore.Close(context.Background())
			return nil, nil, err
		}
		return mongoStore, func() { mongoStore.Close(context.Background()) }, nil
	}
}

func setupRouter(authService *auth.Service, codec *auth.Codec, userStore store.Store, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(api.RequestLogger(logger), gin.Recovery(), cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api.NewHandler(authService, codec, userStore, logger).RegisterRoutes(router)

	return router
}

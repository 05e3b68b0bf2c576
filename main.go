package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jaryo/config"
	"jaryo/database"
	"jaryo/handlers"
	"jaryo/logger"
	"jaryo/repositories"
	"jaryo/services"
	"jaryo/storage"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	gin.SetMode(cfg.Server.Mode)
	logger.Info("starting jaryo", zap.String("config", configPath))

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if strings.EqualFold(cfg.Session.Store, "redis") {
		redisClient, err = database.OpenRedis(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	signer, err := utils.NewTokenSigner(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return fmt.Errorf("session signing: %w (set jwt.secret or JARYO_JWT_SECRET)", err)
	}

	repos := repositories.NewGormRepositories(db, redisClient, cfg.Redis.KeyPrefix).BuildContainer()
	container := services.NewContainer(repos, blobs, signer, cfg)

	if err := container.Categories.EnsureDefaults(ctx, cfg.Categories.Defaults); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if err := container.Auth.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Seed.AdminName); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	scheduler, err := services.StartCleanupWorkers(cfg.Session.CleanupSpec, container.Cleanup)
	if err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	defer func() { <-scheduler.Stop().Done() }()
	logger.Info("cleanup workers started", zap.String("spec", cfg.Session.CleanupSpec))

	router := handlers.New(container, cfg).Router()
	router.MaxMultipartMemory = 32 << 20

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "local":
		store, err := storage.NewLocalStore(cfg.Storage.BasePath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		logger.Info("blob storage ready", zap.String("backend", "local"), zap.String("path", cfg.Storage.BasePath))
		return store, nil
	case "minio", "s3":
		store, err := storage.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("init minio storage: %w", err)
		}
		logger.Info("blob storage ready", zap.String("backend", "minio"), zap.String("bucket", cfg.Minio.Bucket))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

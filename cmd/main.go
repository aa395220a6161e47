package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pacis-link/share-service/config"
	"github.com/pacis-link/share-service/internal/blob"
	"github.com/pacis-link/share-service/internal/pubsub"
	"github.com/pacis-link/share-service/internal/registry"
	"github.com/pacis-link/share-service/internal/service"
	"github.com/pacis-link/share-service/internal/storage"
	"github.com/pacis-link/share-service/internal/storage/badgerstore"
	"github.com/pacis-link/share-service/internal/storage/postgres"
	httpx "github.com/pacis-link/share-service/internal/transport/http"
	"github.com/pacis-link/share-service/internal/transport/ws"
	"github.com/pacis-link/share-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting share-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx := context.Background()

	// --- storage ---
	var store storage.Store
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		store = pg
	default:
		bs, err := badgerstore.Open(cfg.Storage.Badger.Path, slog.Default())
		if err != nil {
			log.Fatalf("badger: %v", err)
		}
		store = bs
	}
	defer store.Close()

	// --- blobs ---
	var blobs blob.Store
	switch cfg.Blob.Driver {
	case "s3":
		blobs, err = blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:        cfg.Blob.S3.Endpoint,
			Region:          cfg.Blob.S3.Region,
			Bucket:          cfg.Blob.S3.Bucket,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
			UsePathStyle:    cfg.Blob.S3.UsePathStyle,
		})
		if err != nil {
			log.Fatalf("s3 blob store: %v", err)
		}
	default:
		blobs, err = blob.NewLocalStore(cfg.Blob.Local.BasePath)
		if err != nil {
			log.Fatalf("local blob store: %v", err)
		}
	}

	// --- hub & bridge ---
	hub := ws.NewHub(registry.New())
	if cfg.Bridge.Enabled {
		bridge, err := pubsub.NewRedisBridge(pubsub.RedisConfig{
			Addr:     cfg.Bridge.Redis.Addr,
			Password: cfg.Bridge.Redis.Password,
			DB:       cfg.Bridge.Redis.DB,
		}, slog.Default())
		if err != nil {
			log.Fatalf("redis bridge: %v", err)
		}
		defer bridge.Close()
		hub.SetBridge(bridge)
		go hub.RunBridge(ctx)
	}

	// --- services ---
	chatSvc := service.NewChatService(store, cfg.Limits.MaxMessageChars)
	fileSvc := service.NewFileService(store, blobs, slog.Default())
	fileSvc.SetShareSink(ws.NewShareNotifier(hub))

	// --- WS server ---
	wsServer := ws.NewServer(hub, chatSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(chatSvc, fileSvc, hub, cfg.Limits.MaxUploadBytes)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}

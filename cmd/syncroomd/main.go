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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/common/config"
	"github.com/syncroom/syncroom/internal/hub"
	"github.com/syncroom/syncroom/internal/hub/storage"
	"github.com/syncroom/syncroom/pkg/helper"
	"github.com/syncroom/syncroom/pkg/logger"
	"github.com/syncroom/syncroom/pkg/metrics"
	"github.com/syncroom/syncroom/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of syncroomd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("syncroomd version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "syncroomd",
		Short: "Collaboration session hub",
		Long:  `syncroomd hosts real-time collaboration sessions: WebSocket rooms with presence, chat, and artifact sharing`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg := loadConfig()

	zlog, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("Starting syncroomd", zap.String("version", version.Get()))

	store := newStore(zlog, cfg)
	defer closeStore(zlog, store)

	m := metrics.New(cfg.Metrics.Namespace)
	h := hub.New(zlog, store, m, cfg.Server.WriteTimeout)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	hub.NewHandler(zlog, h).Register(router)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, m.Handler())
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		zlog.Info("Listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("failed to shutdown server", zap.Error(err))
	}
}

func loadConfig() *config.Config {
	name := configPath
	if name == "" {
		name = "syncroomd.yaml"
	}
	path := helper.GetCfgPath(name)
	if _, err := os.Stat(path); err != nil {
		if configPath != "" {
			log.Fatalf("Failed to read configuration %s: %v", path, err)
		}
		log.Printf("no configuration file found, using defaults")
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", path, err)
	}
	return cfg
}

func newStore(zlog *zap.Logger, cfg *config.Config) storage.Store {
	switch cfg.Server.RosterStore {
	case "redis":
		store, err := storage.NewRedisStore(context.Background(), zlog, cfg.Server.Redis)
		if err != nil {
			zlog.Fatal("Failed to connect to redis", zap.Error(err))
		}
		return store
	case "", "memory":
		return storage.NewMemoryStore(zlog)
	default:
		zlog.Fatal("Unsupported roster store", zap.String("type", cfg.Server.RosterStore))
		return nil
	}
}

func closeStore(zlog *zap.Logger, store storage.Store) {
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			zlog.Warn("failed to close roster store", zap.Error(err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

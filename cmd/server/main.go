package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/api"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/config"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/database"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/observability"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/repository"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)
	log.Logger = logger
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	db, err := database.Open(database.Config{
		Path:         cfg.DBPath,
		MaxOpenConns: cfg.DBMaxOpenConns,
		BusyTimeout:  cfg.DBBusyTimeout,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.NewMigrationManager(db, logger).RunMigrations(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	store := repository.NewSQLStore(db)
	locks := service.NewUserLocks()
	services := api.Services{
		Zones:   service.NewZoneService(store, locks, cfg.ZoneRadius, metrics, logger),
		Areas:   service.NewVisitedAreaService(store, locks, cfg.Area, metrics, logger),
		Metrics: metrics,
	}

	// 初始化路由
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           api.SetupRouter(cfg, services, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info().Str("addr", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "map-mates").Logger()
}

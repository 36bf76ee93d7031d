package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/models"
	"shareit/internal/notify"
	"shareit/internal/repository"
	"shareit/internal/service"
	"shareit/internal/sheets"
	"shareit/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := logging.Component(baseLogger, "main")

	dbLogger := logging.Component(baseLogger, "database")
	db, err := database.NewDB(cfg.Database.Path, &dbLogger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	cache := initCache(cfg, baseLogger)
	eventBus := events.NewEventBus()

	syncWorker := initSheetsSync(ctx, cfg, db, baseLogger)

	if cfg.Notify.TelegramToken != "" {
		notifyLogger := logging.Component(baseLogger, "notify")
		notifier, err := notify.NewTelegramNotifier(cfg.Notify, notifyLogger)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram notifier disabled")
		} else {
			notifier.Subscribe(eventBus)
			defer notifier.Close()
		}
	}

	if cfg.Exports.Enabled {
		exportWorker := worker.NewExportWorker(db, cfg.Exports, logging.Component(baseLogger, "export"))
		go exportWorker.Start(ctx)
	}

	serviceLogger := logging.Component(baseLogger, "service")
	bookingService := service.NewBookingService(db, db, db, eventBus, syncWorker, &serviceLogger)
	userService := service.NewUserService(db, &serviceLogger)
	itemService := service.NewItemService(db, db, db, db, cache, &serviceLogger)
	requestService := service.NewRequestService(db, db, db, &serviceLogger)

	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	server := api.NewServer(*cfg, bookingService, itemService, userService, requestService,
		cache, logging.Component(baseLogger, "api"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// initCache wires redis with an in-memory failover, or memory-only when
// redis is disabled.
func initCache(cfg *config.Config, baseLogger *zerolog.Logger) repository.CacheRepository {
	ttl := models.ItemViewCacheTTL * time.Second
	memory := repository.NewMemoryRepository(ttl)
	if !cfg.Redis.Enabled {
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	primary := repository.NewRedisRepository(client, ttl)
	failoverLogger := logging.Component(baseLogger, "cache")
	return repository.NewFailoverRepository(primary, memory, &failoverLogger)
}

func initSheetsSync(ctx context.Context, cfg *config.Config, db *database.DB, baseLogger *zerolog.Logger) domain.SyncWorker {
	if !cfg.Google.Enabled {
		return nil
	}

	logger := logging.Component(baseLogger, "sheets")
	sheetsService, err := sheets.NewService(ctx, cfg.Google)
	if err != nil {
		logger.Warn().Err(err).Msg("sheets sync disabled")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("sheets connection test failed, sync disabled")
		return nil
	}

	syncWorker := worker.NewSheetsSyncWorker(db, sheetsService, worker.DefaultRetryPolicy(), logger)
	go syncWorker.Start(ctx)
	return syncWorker
}

func startMetricsServer(ctx context.Context, port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

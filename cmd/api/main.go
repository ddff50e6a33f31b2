package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stayhub/internal/api"
	"stayhub/internal/config"
	"stayhub/internal/database"
	"stayhub/internal/domain"
	"stayhub/internal/events"
	"stayhub/internal/export"
	"stayhub/internal/google"
	"stayhub/internal/logging"
	"stayhub/internal/metrics"
	"stayhub/internal/models"
	"stayhub/internal/notification"
	"stayhub/internal/repository"
	"stayhub/internal/service"
	"stayhub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
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
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.SeedFile != "" {
		if err := seedInventory(context.Background(), db, cfg.SeedFile, &logger); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	// Кэш доступности: redis с фолбэком на память, либо только память
	cacheTTL := time.Duration(models.AvailabilityCacheTTL) * time.Second
	memoryCache := repository.NewMemoryAvailabilityCache(cacheTTL)
	var cache domain.AvailabilityCache = memoryCache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable at startup, failover cache will retry")
		}
		defer repository.Close(redisClient)
		redisCache := repository.NewRedisAvailabilityCache(redisClient, cacheTTL)
		cache = repository.NewFailoverAvailabilityCache(redisCache, memoryCache, &logger)
	}

	eventBus := events.NewEventBus()
	subscribeEvents(eventBus, &logger)

	var notifier domain.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notification.NewTelegramNotifier(cfg.Telegram.BotToken, &logger)
		if err != nil {
			return err
		}
		notifier = tg
	}

	availabilityService := service.NewAvailabilityService(db, cache, &logger)
	notificationService := service.NewNotificationService(db, notifier, &logger)
	reportService := service.NewReportService(db, availabilityService, cfg.Booking.OccupancyReportDays, &logger)

	// Воркер синхронизации Google Sheets
	var sheetsWorker *worker.SheetsWorker
	var syncWorker domain.SyncWorker
	if cfg.Google.GoogleCredentialsFile != "" && cfg.Google.OccupancySpreadsheetID != "" {
		sheetsService, err := google.NewOccupancySheetsService(cfg.Google.GoogleCredentialsFile, cfg.Google.OccupancySpreadsheetID)
		if err != nil {
			return err
		}
		if err := sheetsService.TestConnection(ctx); err != nil {
			logger.Warn().Err(err).Msg("Google Sheets connection test failed, worker will retry")
		}
		sheetsWorker = worker.NewSheetsWorker(db, reportService, sheetsService, redisClient, worker.RetryPolicy{}, &logger)
		syncWorker = sheetsWorker
		go sheetsWorker.Start(ctx)

		// Смена вместимости меняет всё расписание, переэкспортируем его
		eventBus.Subscribe(events.EventCapacityChanged, func(event *events.Event) error {
			return sheetsWorker.EnqueueOccupancySync(ctx)
		})
	}

	reservationService := service.NewReservationService(db, availabilityService, notificationService, eventBus, syncWorker, cfg.Booking, &logger)
	roomTypeService := service.NewRoomTypeService(db, availabilityService, eventBus, cfg.Booking.CapacityHorizonDays, &logger)
	exporter := export.NewExcelExporter(cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go servePrometheus(cfg.Monitoring, &logger)
	}

	apiServer := api.NewHTTPServer(cfg.API, api.Services{
		Availability:  availabilityService,
		Reservations:  reservationService,
		RoomTypes:     roomTypeService,
		Notifications: notificationService,
		Reports:       reportService,
		Exporter:      exporter,
	}, &logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

// seedInventory загружает стартовый каталог (пользователи, отели, типы
// номеров) из YAML файла при пустой базе.
func seedInventory(ctx context.Context, db *database.DB, path string, logger *zerolog.Logger) error {
	existing, err := db.GetRoomTypes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", path)
		return err
	}

	var seed struct {
		Users     []models.User     `yaml:"users"`
		Hotels    []models.Hotel    `yaml:"hotels"`
		RoomTypes []models.RoomType `yaml:"room_types"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Msg("Ошибка парсинга seed файла")
		return err
	}

	for i := range seed.Users {
		if err := db.CreateUser(ctx, &seed.Users[i]); err != nil {
			return err
		}
	}
	for i := range seed.Hotels {
		if err := db.CreateHotel(ctx, &seed.Hotels[i]); err != nil {
			return err
		}
	}
	for i := range seed.RoomTypes {
		if err := db.CreateRoomType(ctx, &seed.RoomTypes[i]); err != nil {
			return err
		}
	}

	logger.Info().
		Int("users", len(seed.Users)).
		Int("hotels", len(seed.Hotels)).
		Int("room_types", len(seed.RoomTypes)).
		Msg("inventory seeded")
	return nil
}

func subscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationCancelled,
		events.EventBookingConfirmed,
		events.EventBookingCancelled,
		events.EventCapacityChanged,
	} {
		et := eventType
		bus.Subscribe(et, func(event *events.Event) error {
			logger.Debug().Str("event_type", et).RawJSON("payload", event.Payload).Msg("domain event")
			return nil
		})
	}
}

func servePrometheus(cfg config.MonitoringConfig, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardapio/internal/api"
	"cardapio/internal/config"
	"cardapio/internal/database"
	"cardapio/internal/domain"
	"cardapio/internal/export"
	"cardapio/internal/logging"
	"cardapio/internal/menusync"
	"cardapio/internal/metrics"
	"cardapio/internal/models"
	"cardapio/internal/notify"
	"cardapio/internal/repository"
	"cardapio/internal/service"
	"cardapio/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing setup failed, continuing without traces")
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	defaults, err := loadDefaults(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	backend, snapshot, cleanup, err := initMenuBackend(ctx, cfg, db, defaults, &logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := menusync.OptionsFromConfig(cfg.Menu)
	opts.Defaults = defaults
	opts.Logger = &logger
	if snapshot != nil {
		opts.Snapshot = snapshot
	}
	menu := menusync.NewService(backend, opts)

	bus, busCleanup := initBus(ctx, cfg, &logger)
	defer busCleanup()

	channels := []domain.NotificationChannel{bus}
	if len(cfg.Notify.Peers) > 0 {
		channels = append(channels, notify.NewPeerChannel(cfg.Notify.Peers, cfg.Notify.PeerToken))
	}
	notifier := notify.NewNotifier(&logger, cfg.Notify.InstanceID, channels...)
	logger.Info().Str("instance_id", notifier.InstanceID()).Str("bus", cfg.Notify.Bus).Msg("Notifier ready")
	go invalidateOnForeignUpdates(ctx, bus, menu, notifier.InstanceID(), &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(cfg, api.Deps{
		Menu:      menu,
		Notifier:  notifier,
		Orders:    service.NewOrderService(db, &logger),
		Customers: service.NewCustomerService(db, &logger),
		SiteInfo:  service.NewSiteInfoService(db),
		Exporter:  export.NewOrdersExporter(cfg.Exports.Path, &logger),
	}, &logger)

	// warm the cache so the first request does not pay for the backend round trip
	items := menu.ListAll(ctx)
	logger.Info().
		Str("backend", backend.Name()).
		Str("source", menu.LastSource()).
		Int("items", len(items)).
		Msg("Menu loaded")

	return serve(ctx, server, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadDefaults(cfg *config.Config, logger *zerolog.Logger) ([]models.MenuItem, error) {
	if cfg.Menu.DefaultsPath == "" {
		return repository.DefaultMenu(), nil
	}
	items, err := config.LoadItems(cfg.Menu.DefaultsPath)
	if err != nil {
		logger.Error().Err(err).Str("defaults_path", cfg.Menu.DefaultsPath).Msg("load default menu")
		return nil, err
	}
	return items, nil
}

// initMenuBackend returns the configured backend and the snapshot the sync
// layer falls back to. The file backend is its own snapshot.
func initMenuBackend(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	defaults []models.MenuItem,
	logger *zerolog.Logger,
) (domain.MenuBackend, menusync.SnapshotStore, func(), error) {
	noop := func() {}
	snapshot := repository.NewSnapshot(cfg.Menu.SnapshotPath)

	switch cfg.Menu.Backend {
	case config.BackendSQLite:
		store := db.MenuStore()
		if err := store.SeedIfEmpty(ctx, defaults); err != nil {
			return nil, nil, noop, fmt.Errorf("seed sqlite menu: %w", err)
		}
		return store, snapshot, noop, nil

	case config.BackendPostgres:
		pool, err := repository.NewPostgresPool(ctx, cfg.Database.Postgres.ConnString())
		if err != nil {
			return nil, nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		backend := repository.NewPostgresMenuBackend(pool)
		if err := backend.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, noop, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info().Msg("postgres menu backend connected")
		return backend, snapshot, pool.Close, nil

	case config.BackendSupabase:
		return repository.NewSupabaseMenuBackend(cfg.Supabase, nil), snapshot, noop, nil

	case config.BackendFile:
		return repository.NewFileMenuBackend(cfg.Menu.SnapshotPath, defaults), nil, noop, nil

	case config.BackendMemory:
		return repository.NewMemoryMenuBackend(defaults), snapshot, noop, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown menu backend %q", cfg.Menu.Backend)
}

// initBus builds the notification bus. Redis is wrapped in a failover so an
// unreachable Redis degrades to in-process delivery.
func initBus(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.NotificationBus, func()) {
	local := notify.NewMemoryBus()
	if cfg.Notify.Bus != config.BusRedis || cfg.Redis.Address == "" {
		return local, func() {}
	}

	redisBus := notify.NewRedisBus(notify.NewRedisClient(cfg.Redis), logger)
	if err := redisBus.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, notifications stay local until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return notify.NewFailoverBus(redisBus, local, logger), func() { _ = redisBus.Close() }
}

// invalidateOnForeignUpdates expires the menu cache when another instance
// announces a change.
func invalidateOnForeignUpdates(
	ctx context.Context,
	bus domain.NotificationBus,
	menu domain.MenuService,
	instanceID string,
	logger *zerolog.Logger,
) {
	notes, err := bus.Subscribe(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("menu update subscription failed")
		return
	}
	for n := range notes {
		if n.InstanceID == instanceID {
			continue
		}
		menu.Invalidate()
		logger.Debug().Str("from", n.InstanceID).Msg("Menu cache invalidated by remote update")
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, server *api.Server, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info().Int("http_port", cfg.Server.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

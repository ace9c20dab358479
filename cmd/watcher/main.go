package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cardapio/internal/config"
	"cardapio/internal/domain"
	"cardapio/internal/logging"
	"cardapio/internal/notify"
	"cardapio/internal/watcher"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg, envErr := config.LoadWatcherEnv()

	cmd := &cobra.Command{
		Use:   "cardapio-watcher",
		Short: "Follow the cardapio menu and re-render it on every change",
		Long: "Polls the menu API and listens on the notification bus, printing the\n" +
			"visible menu whenever it changes.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.APIURL, "api", cfg.APIURL, "base URL of the cardapio API")
	flags.StringVar(&cfg.Redis.Address, "redis", cfg.Redis.Address, "redis address for push notifications (empty: poll only)")
	flags.StringVar(&cfg.InstanceID, "instance-id", cfg.InstanceID, "apply item changes from notifications carrying this instance id")
	flags.DurationVar(&cfg.LastUpdateInterval, "last-update-interval", cfg.LastUpdateInterval, "lastUpdate poll interval")
	flags.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "hash poll interval")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	return cmd
}

func run(parent context.Context, cfg config.WatcherConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closer, err := logging.New(
		config.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"},
		config.AppConfig{Name: "cardapio-watcher"},
	)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	var bus domain.NotificationBus
	if cfg.Redis.Address != "" {
		redisBus := notify.NewRedisBus(notify.NewRedisClient(cfg.Redis), logger)
		defer redisBus.Close()
		if err := redisBus.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, relying on polling")
		}
		bus = redisBus
	}

	w := watcher.New(
		watcher.NewClient(cfg.APIURL, cfg.RequestTimeout),
		bus,
		watcher.NewTableRenderer(os.Stdout),
		watcher.Options{
			InstanceID:         cfg.InstanceID,
			LastUpdateInterval: cfg.LastUpdateInterval,
			SyncInterval:       cfg.SyncInterval,
			Logger:             logger,
		},
	)

	logger.Info().Str("api", cfg.APIURL).Bool("push", bus != nil).Msg("Watching menu")
	return w.Run(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/ilyklain/khlan-saas/internal/api"
	"github.com/ilyklain/khlan-saas/internal/config"
	"github.com/ilyklain/khlan-saas/internal/drag"
	"github.com/ilyklain/khlan-saas/internal/layout"
	"github.com/ilyklain/khlan-saas/internal/store"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "khlan",
		Short: "Khlan dashboard layout server",
		Long: `khlan serves the dashboard widget layout: widget order and visibility,
persisted across sessions, with a live change feed for the dashboard page.`,
		SilenceUsage: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Args:  cobra.NoArgs,
			Short: "Run in foreground",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				return runServer(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "start",
			Args:  cobra.NoArgs,
			Short: "Start daemon (background)",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				return cmdStart(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "stop",
			Args:  cobra.NoArgs,
			Short: "Stop daemon",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				return cmdStop(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "status",
			Args:  cobra.NoArgs,
			Short: "Show daemon status",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				return cmdStatus(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "khlan %s\n", version)
			},
		},
	)
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// kvStore is layout storage that can also enumerate its keys.
type kvStore interface {
	layout.Storage
	Keys(ctx context.Context) ([]string, error)
}

// openStorage returns the layout storage and a function releasing it.
func openStorage(cfg *config.Config) (kvStore, func() error, error) {
	if cfg.Ephemeral {
		return store.NewMemory(), func() error { return nil }, nil
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return db, db.Close, nil
}

func logStoredKeys(ctx context.Context, log *zap.Logger, s kvStore) {
	keys, err := s.Keys(ctx)
	if err != nil {
		log.Warn("list stored keys", zap.Error(err))
		return
	}
	log.Debug("storage opened", zap.Strings("keys", keys))
}

// daemonArgs rebuilds the argv for the "run" child from the flags the user
// set, wherever they appeared on the command line.
func daemonArgs(fs *pflag.FlagSet) []string {
	args := []string{"run"}
	fs.Visit(func(f *pflag.Flag) {
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return args
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	storage, closeStorage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	engine := layout.New(storage,
		layout.WithKey(cfg.StorageKey),
		layout.WithLogger(log),
	)
	logStoredKeys(ctx, log, storage)
	restored := engine.Load(ctx)
	log.Info("layout loaded", zap.Strings("order", restored.IDs()))

	hub := api.NewHub(engine.Current, log)
	unsubscribe := engine.Subscribe(hub.Publish)
	defer unsubscribe()

	router := api.NewRouter(engine, hub, drag.Sensor{Distance: cfg.DragDist}, cfg.BasePath, log)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("listening",
			zap.String("version", version),
			zap.String("addr", "http://"+cfg.Listen),
			zap.String("base_path", cfg.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if rmErr := removeOwnPidFile(cfg.PidFile, os.Getpid()); rmErr != nil {
		log.Warn("remove pid file", zap.Error(rmErr))
	}
	log.Info("goodbye")
	return err
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stelae/stelae/internal/async"
	"github.com/stelae/stelae/internal/config"
	"github.com/stelae/stelae/internal/docs"
	"github.com/stelae/stelae/internal/graph"
	"github.com/stelae/stelae/internal/index"
	"github.com/stelae/stelae/internal/sched"
	"github.com/stelae/stelae/internal/server"
	"github.com/stelae/stelae/internal/store"
	"github.com/stelae/stelae/internal/telemetry"
)

// newServeCmd creates the serve command, the long-running service.
func newServeCmd() *cobra.Command {
	var rebuildOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the synchronization service",
		Long: `Runs the long-running synchronization service: the mutation-event
worker, the periodic full-rebuild scheduler, and the admin HTTP
surface (health, metrics, reindex trigger).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			defer teardownLogging()
			return runServe(cmd.Context(), cfg, rebuildOnStart)
		},
	}

	cmd.Flags().BoolVar(&rebuildOnStart, "rebuild", false, "Run a full rebuild before serving")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, rebuildOnStart bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One process per data directory. The single-writer SQLite
	// connection and the bleve directories cannot be shared.
	lock := store.NewDirLock(cfg.Paths.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("data directory %s is in use by another stelae process", cfg.Paths.DataDir)
	}
	defer func() { _ = lock.Unlock() }()

	graphStore, err := store.NewSQLiteGraphStore(cfg.Paths.GraphDB)
	if err != nil {
		return err
	}
	defer func() { _ = graphStore.Close() }()

	resolver, err := graph.NewResolver(graphStore)
	if err != nil {
		return err
	}
	projector, err := docs.NewProjector(graphStore)
	if err != nil {
		return err
	}

	objects, err := index.NewBleveStore("objects", cfg.Paths.ObjectIndex)
	if err != nil {
		return err
	}
	defer func() { _ = objects.Close() }()

	metadata, err := index.NewBleveStore("metadata", cfg.Paths.MetadataIndex)
	if err != nil {
		return err
	}
	defer func() { _ = metadata.Close() }()

	metrics := telemetry.NewMetrics()
	sync := index.NewSynchronizer(index.SynchronizerConfig{
		BatchSize:        cfg.Index.BatchSize,
		MetadataPageSize: cfg.Index.MetadataPageSize,
		MetadataValueCap: cfg.Index.MetadataValueCap,
	}, graphStore, resolver, projector, objects, metadata, metrics)

	if rebuildOnStart {
		slog.Info("running startup rebuild")
		if ok := sync.TriggerFullRebuild(ctx); !ok {
			return fmt.Errorf("startup rebuild failed")
		}
	}

	worker := async.NewWorker(async.WorkerConfig{QueueSize: cfg.Events.QueueSize}, sync.HandleMutation)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := server.New(addr, sync, objects, metadata, metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Start(gctx)
	})
	if cfg.Scheduler.Enabled {
		scheduler := sched.New(cfg.Scheduler.Interval, sync.TriggerFullRebuild)
		g.Go(func() error {
			return scheduler.Start(gctx)
		})
	}
	g.Go(func() error {
		return srv.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("stelae service started",
		slog.String("addr", addr),
		slog.String("data_dir", cfg.Paths.DataDir))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("stelae service stopped")
	return nil
}

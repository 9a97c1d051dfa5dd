package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stelae/stelae/internal/docs"
	"github.com/stelae/stelae/internal/graph"
	"github.com/stelae/stelae/internal/index"
	"github.com/stelae/stelae/internal/store"
	"github.com/stelae/stelae/internal/telemetry"
	"github.com/stelae/stelae/internal/ui"
)

// newRebuildCmd creates the one-shot rebuild command.
func newRebuildCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild both search indices from the object graph",
		Long: `Runs one full rebuild of the object and metadata indices and exits.
The data directory must not be in use by a running serve process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			defer teardownLogging()

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

			sync := index.NewSynchronizer(index.SynchronizerConfig{
				BatchSize:        cfg.Index.BatchSize,
				MetadataPageSize: cfg.Index.MetadataPageSize,
				MetadataValueCap: cfg.Index.MetadataValueCap,
			}, graphStore, resolver, projector, objects, metadata, telemetry.NewMetrics())

			reporter := ui.NewReporter(cmd.OutOrStdout(), noColor)
			reporter.Starting()

			start := time.Now()
			stats, err := sync.FullRebuild(cmd.Context())
			if err != nil {
				reporter.Failed(err)
				return err
			}
			reporter.Complete(stats, time.Since(start))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

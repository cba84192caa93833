package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/pipeline"
	"github.com/aouyang1/photoportfolio/store"
	"github.com/spf13/cobra"
)

var noCache bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate photo metadata and upload assets",
	Long: `Scans public/images, extracts dimensions, blur placeholders and EXIF details,
merges data/content-config.json and writes data/photo-metadata.json. When uploads
are enabled the originals and resized variants are pushed to the bucket.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&noCache, "no-cache", false, "extract every image even when unchanged")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, closeCache := newBuilder(cfg, !noCache)
	defer closeCache()

	summary, err := builder.Run(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"built %d of %d images (%d skipped, %d reused, %d uploaded) in %s mode\n",
		summary.Processed, summary.Total, summary.Skipped, summary.Reused, summary.Uploaded, summary.Mode,
	)
	return nil
}

// newBuilder returns a builder and a func releasing its resources. A cache that
// cannot be opened is logged and the build runs without it.
func newBuilder(cfg *config.Config, useCache bool) (*pipeline.Builder, func()) {
	closeCache := func() {}
	var opts []pipeline.Option

	if useCache {
		db, err := store.NewDatabase(cfg.CacheDBPath())
		if err != nil {
			slog.Warn("unable to open metadata cache, continuing without it", "path", cfg.CacheDBPath(), "error", err)
		} else {
			opts = append(opts, pipeline.WithCache(db))
			closeCache = func() {
				if err := db.Close(); err != nil {
					slog.Warn("unable to close metadata cache", "error", err)
				}
			}
		}
	}

	return pipeline.NewBuilder(cfg, opts...), closeCache
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/photoportfolio/api"
	"github.com/spf13/cobra"
)

var (
	serveWatch bool
	serveBuild bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gallery and admin endpoints",
	Long: `Serves the gallery from data/photo-metadata.json along with the admin
endpoints. With --watch the images directory is watched and the metadata is
rebuilt whenever images change or an annotation is saved.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "rebuild metadata when images or annotations change")
	serveCmd.Flags().BoolVar(&serveBuild, "build", false, "run a build before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, closeCache := newBuilder(cfg, true)
	defer closeCache()

	if serveBuild {
		if _, err := builder.Run(ctx); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
	}

	var opts []api.Option
	if serveWatch {
		lm, err := api.NewLocalManager(cfg.ImagesDir(), 0)
		if err != nil {
			return fmt.Errorf("failed to initialize local manager: %w", err)
		}
		opts = append(opts, api.WithRebuild(builder, lm))
		slog.Info("watching images directory", "dir", cfg.ImagesDir())
	}

	ws, err := api.NewWebServer(cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize web server: %w", err)
	}
	return ws.Run(ctx)
}

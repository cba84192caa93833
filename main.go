package main

import (
	"log/slog"
	"os"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/spf13/cobra"
)

var (
	rootPath string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "portfolio",
	Short:         "Build and serve a photo portfolio",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "portfolio root directory (defaults to PORTFOLIO_ROOT_PATH or .)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(buildCmd, serveCmd, pullCmd, checkStorageCmd, annotateCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

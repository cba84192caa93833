package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/photoportfolio/remote"
	"github.com/spf13/cobra"
)

var pullPrune bool

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download original images missing from public/images out of the bucket",
	Args:  cobra.NoArgs,
	RunE:  runPull,
}

func init() {
	pullCmd.Flags().BoolVar(&pullPrune, "prune", false, "remove local images that are not in the bucket")
}

func runPull(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	puller, err := remote.NewPullerFromConfig(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("unable to create puller: %w", err)
	}

	res, err := puller.Pull(ctx, cfg.ImagesDir(), "images", pullPrune)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d images (%d failed, %d removed)\n", res.Downloaded, res.Failed, res.Removed)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/photoportfolio/api/client"
	"github.com/spf13/cobra"
)

const annotateTimeout = 30 * time.Second

var (
	annotateServer      string
	annotateLocation    string
	annotateDescription string
	annotateSecret      string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <filename>",
	Short: "Set the description and location of a photo on a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVar(&annotateServer, "server", "http://localhost:8080", "base URL of the portfolio server")
	annotateCmd.Flags().StringVar(&annotateLocation, "location", "", "where the photo was taken")
	annotateCmd.Flags().StringVar(&annotateDescription, "description", "", "photo description")
	annotateCmd.Flags().StringVar(&annotateSecret, "secret", "", "admin secret (defaults to PORTFOLIO_ADMIN_SECRET)")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	if annotateLocation == "" && annotateDescription == "" {
		return errors.New("at least one of --location or --description is required")
	}

	secret := annotateSecret
	if secret == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		secret = cfg.AdminSecret
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), annotateTimeout)
	defer cancel()

	filename := args[0]
	pc := client.NewPhotoClient(annotateServer, secret)

	// keep the field that was not given
	current, err := pc.GetConfig(ctx)
	if err != nil {
		return err
	}
	entry := current[filename]
	if annotateLocation != "" {
		entry.Location = annotateLocation
	}
	if annotateDescription != "" {
		entry.Description = annotateDescription
	}

	if err := pc.SaveConfig(ctx, filename, entry); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "annotated %s\n", filename)
	return nil
}

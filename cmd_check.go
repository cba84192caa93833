package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/pipeline"
	"github.com/aouyang1/photoportfolio/remote"
	"github.com/spf13/cobra"
)

const pingTimeout = 10 * time.Second

var checkPing bool

var checkStorageCmd = &cobra.Command{
	Use:   "check-storage",
	Short: "Show the storage configuration and the resulting build mode",
	Args:  cobra.NoArgs,
	RunE:  runCheckStorage,
}

func init() {
	checkStorageCmd.Flags().BoolVar(&checkPing, "ping", false, "verify the bucket is reachable")
}

func runCheckStorage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printStorage(out, cfg.Storage)

	if !checkPing {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()

	uploader, err := remote.NewUploaderFromConfig(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("unable to create uploader: %w", err)
	}
	if err := uploader.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "bucket %q is reachable\n", cfg.Storage.Bucket)
	return nil
}

func printStorage(out io.Writer, s config.StorageConfig) {
	rows := []struct {
		name  string
		value string
	}{
		{"PORTFOLIO_ENABLE_UPLOAD", fmt.Sprint(s.Enabled)},
		{"PORTFOLIO_S3_ENDPOINT", s.Endpoint},
		{"PORTFOLIO_S3_BUCKET", s.Bucket},
		{"PORTFOLIO_S3_ACCESS_KEY_ID", mask(s.AccessKeyID)},
		{"PORTFOLIO_S3_SECRET_ACCESS_KEY", mask(s.SecretAccessKey)},
		{"PORTFOLIO_S3_REGION", s.Region},
		{"PORTFOLIO_ASSET_PREFIX", s.PublicURL},
	}
	for _, r := range rows {
		value := r.value
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(out, "%-32s %s\n", r.name, value)
	}

	mode := pipeline.DecideMode(s)
	fmt.Fprintf(out, "\nbuild mode: %s\n", mode)
	switch mode {
	case pipeline.ModeUpload:
		fmt.Fprintf(out, "images will be uploaded and served from %s/images/\n", s.PublicURL)
	case pipeline.ModeCDN:
		fmt.Fprintf(out, "images are assumed to exist at %s/images/\n", s.PublicURL)
	default:
		if s.Enabled && !s.Complete() {
			fmt.Fprintln(out, "uploads are enabled but the storage config is incomplete")
		} else if s.Enabled && !s.HasCDNPrefix() {
			fmt.Fprintln(out, "uploads are enabled but PORTFOLIO_ASSET_PREFIX is not an https URL")
		}
		fmt.Fprintln(out, "images will be served from /images/")
	}
}

// mask keeps the first and last two characters of a secret.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:2] + "******" + s[len(s)-2:]
}

package main

import (
	"bytes"
	"testing"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "******", mask("abc"))
	assert.Equal(t, "AK******YZ", mask("AKIAXXXXYZ"))
}

func TestPrintStorage(t *testing.T) {
	testData := []struct {
		name     string
		storage  config.StorageConfig
		contains []string
		missing  []string
	}{
		{
			name:     "unset",
			storage:  config.StorageConfig{},
			contains: []string{"PORTFOLIO_S3_BUCKET", "(not set)", "build mode: local"},
		},
		{
			name: "upload",
			storage: config.StorageConfig{
				Enabled:         true,
				Endpoint:        "https://acct.r2.cloudflarestorage.com",
				Bucket:          "photos",
				AccessKeyID:     "AKIAXXXXYZ",
				SecretAccessKey: "supersecretvalue",
				Region:          "auto",
				PublicURL:       "https://cdn.example.com",
			},
			contains: []string{"AK******YZ", "su******ue", "build mode: upload", "https://cdn.example.com/images/"},
			missing:  []string{"supersecretvalue", "AKIAXXXXYZ"},
		},
		{
			name: "incomplete",
			storage: config.StorageConfig{
				Enabled:   true,
				PublicURL: "https://cdn.example.com",
			},
			contains: []string{"build mode: local", "storage config is incomplete"},
		},
		{
			name:     "cdn",
			storage:  config.StorageConfig{PublicURL: "https://cdn.example.com"},
			contains: []string{"build mode: cdn"},
		},
	}

	for _, td := range testData {
		t.Run(td.name, func(t *testing.T) {
			var buf bytes.Buffer
			printStorage(&buf, td.storage)
			for _, s := range td.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range td.missing {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aouyang1/photoportfolio/api/models"
	"github.com/aouyang1/photoportfolio/content"
)

const defaultTimeout = 30 * time.Second

// PhotoClient talks to the admin endpoints of a running portfolio server.
type PhotoClient struct {
	baseURL string
	secret  string
	client  *http.Client
}

func NewPhotoClient(baseURL, secret string) *PhotoClient {
	return &PhotoClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// ListPhotos returns every built photo with its annotation state.
func (pc *PhotoClient) ListPhotos(ctx context.Context) (*models.AdminPhotosData, error) {
	var resp models.AdminPhotosResponse
	if err := pc.do(ctx, http.MethodGet, "/api/admin/photos", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (pc *PhotoClient) GetConfig(ctx context.Context) (content.Config, error) {
	var resp models.ConfigResponse
	if err := pc.do(ctx, http.MethodGet, "/api/admin/config", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = content.Config{}
	}
	return resp.Data, nil
}

// SaveConfig sets the annotation of a single photo.
func (pc *PhotoClient) SaveConfig(ctx context.Context, filename string, entry content.Entry) error {
	reqBody := models.SaveConfigRequest{
		Filename: filename,
		Config:   &entry,
	}
	var resp models.MessageResponse
	if err := pc.do(ctx, http.MethodPost, "/api/admin/config", reqBody, &resp); err != nil {
		return err
	}
	slog.Info("photo config saved", "name", filename, "message", resp.Message)
	return nil
}

// ReplaceConfig overwrites every annotation.
func (pc *PhotoClient) ReplaceConfig(ctx context.Context, cfg content.Config) error {
	reqBody := models.ReplaceConfigRequest{Configs: cfg}
	var resp models.MessageResponse
	return pc.do(ctx, http.MethodPut, "/api/admin/config", reqBody, &resp)
}

func (pc *PhotoClient) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, pc.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if pc.secret != "" {
		req.Header.Set(models.AdminSecretHeader, pc.secret)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

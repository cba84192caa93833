package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aouyang1/photoportfolio/api/models"
	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/content"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, env, secret string, withMetadata bool) (*WebServer, *config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		RootPath:    root,
		Env:         env,
		AdminSecret: secret,
		Variants:    config.DefaultVariants(),
	}
	require.NoError(t, os.MkdirAll(cfg.ImagesDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ImagesDir(), "a.jpg"), []byte("jpeg-bytes"), 0o644))

	if withMetadata {
		require.NoError(t, content.WriteMetadata(cfg.MetadataPath(), content.Metadata{
			"b.jpg": {Width: 20, Height: 10, Thumbnail: "/images/b.jpg", Original: "/images/b.jpg"},
			"a.jpg": {Width: 10, Height: 20, Location: "Lisbon", Thumbnail: "/images/a.jpg", Original: "/images/a.jpg"},
		}))
	}

	ws, err := NewWebServer(cfg)
	require.NoError(t, err)
	return ws, cfg
}

func doRequest(ws *WebServer, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, req)
	return w
}

func TestAdminGuard(t *testing.T) {
	testData := []struct {
		name     string
		env      string
		secret   string
		header   string
		expected int
	}{
		{"development", config.EnvDevelopment, "", "", http.StatusOK},
		{"production without secret", config.EnvProduction, "", "", http.StatusUnauthorized},
		{"production with empty header", config.EnvProduction, "s3cret", "", http.StatusUnauthorized},
		{"production with wrong secret", config.EnvProduction, "s3cret", "nope", http.StatusUnauthorized},
		{"production with secret", config.EnvProduction, "s3cret", "s3cret", http.StatusOK},
	}

	for _, td := range testData {
		t.Run(td.name, func(t *testing.T) {
			ws, _ := newTestServer(t, td.env, td.secret, true)
			headers := map[string]string{}
			if td.header != "" {
				headers[models.AdminSecretHeader] = td.header
			}

			w := doRequest(ws, http.MethodGet, "/api/admin/config", nil, headers)
			assert.Equal(t, td.expected, w.Code)
			if td.expected == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}

			w = doRequest(ws, http.MethodGet, "/admin/manage-photos", nil, headers)
			if td.expected == http.StatusOK {
				assert.Equal(t, http.StatusOK, w.Code)
			} else {
				assert.Equal(t, http.StatusFound, w.Code)
				assert.Equal(t, "/", w.Header().Get("Location"))
			}
		})
	}
}

func TestAdminPhotos(t *testing.T) {
	ws, cfg := newTestServer(t, config.EnvDevelopment, "", true)
	require.NoError(t, content.SaveConfig(cfg.ContentConfigPath(), content.Config{
		"a.jpg":     {Description: "Tram", Location: "Lisbon"},
		"ghost.jpg": {Description: "gone"},
	}))

	w := doRequest(ws, http.MethodGet, "/api/admin/photos", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AdminPhotosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Configured)
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "a.jpg", resp.Data.Items[0].Filename)
	assert.True(t, resp.Data.Items[0].Configured)
	assert.Equal(t, &content.Entry{Description: "Tram", Location: "Lisbon"}, resp.Data.Items[0].Config)
	assert.Equal(t, "b.jpg", resp.Data.Items[1].Filename)
	assert.False(t, resp.Data.Items[1].Configured)
	assert.Nil(t, resp.Data.Items[1].Config)
}

func TestAdminPhotosWithoutMetadata(t *testing.T) {
	ws, _ := newTestServer(t, config.EnvDevelopment, "", false)

	w := doRequest(ws, http.MethodGet, "/api/admin/photos", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestConfigEndpoints(t *testing.T) {
	ws, cfg := newTestServer(t, config.EnvDevelopment, "", true)

	// missing config file reads as empty
	w := doRequest(ws, http.MethodGet, "/api/admin/config", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{}}`, w.Body.String())

	w = doRequest(ws, http.MethodPost, "/api/admin/config", map[string]any{
		"filename": "a.jpg",
		"config":   map[string]string{"description": "Tram 28", "location": "Lisbon"},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	saved, err := content.LoadConfig(cfg.ContentConfigPath())
	require.NoError(t, err)
	assert.Equal(t, content.Config{"a.jpg": {Description: "Tram 28", Location: "Lisbon"}}, saved)

	w = doRequest(ws, http.MethodPost, "/api/admin/config", map[string]any{"filename": "a.jpg"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(ws, http.MethodPost, "/api/admin/config", map[string]any{"config": map[string]string{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(ws, http.MethodPut, "/api/admin/config", map[string]any{
		"configs": map[string]any{"b.jpg": map[string]string{"location": "Porto"}},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(ws, http.MethodGet, "/api/admin/config", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"b.jpg":{"location":"Porto"}}}`, w.Body.String())

	w = doRequest(ws, http.MethodPut, "/api/admin/config", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveConfigInvalidFile(t *testing.T) {
	ws, cfg := newTestServer(t, config.EnvDevelopment, "", true)
	require.NoError(t, os.MkdirAll(cfg.DataDir(), 0o755))
	require.NoError(t, os.WriteFile(cfg.ContentConfigPath(), []byte(`{"a.jpg": {"location": `), 0o644))

	w := doRequest(ws, http.MethodPost, "/api/admin/config", map[string]any{
		"filename": "b.jpg",
		"config":   map[string]string{"location": "Porto"},
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// existing annotations are not overwritten
	data, err := os.ReadFile(cfg.ContentConfigPath())
	require.NoError(t, err)
	assert.Equal(t, `{"a.jpg": {"location": `, string(data))
}

func TestGalleryRoutes(t *testing.T) {
	ws, _ := newTestServer(t, config.EnvProduction, "", true)

	w := doRequest(ws, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `src="/images/a.jpg"`)
	assert.Less(t, strings.Index(body, "/images/a.jpg"), strings.Index(body, "/images/b.jpg"))

	w = doRequest(ws, http.MethodGet, "/api/photos", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.PhotoListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "a.jpg", list.Photos[0].Filename)
	assert.Equal(t, "Lisbon", list.Photos[0].Location)

	w = doRequest(ws, http.MethodGet, "/images/a.jpg", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())

	w = doRequest(ws, http.MethodGet, "/static/js/lightbox.js", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(ws, http.MethodGet, "/favicon.svg", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
}

func TestGalleryWithoutMetadata(t *testing.T) {
	ws, cfg := newTestServer(t, config.EnvProduction, "", false)

	w := doRequest(ws, http.MethodGet, "/api/photos", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"photos":[],"total":0}`, w.Body.String())

	require.NoError(t, content.WriteMetadata(cfg.MetadataPath(), content.Metadata{
		"c.jpg": {Width: 1, Height: 1, Original: "/images/c.jpg"},
	}))
	require.NoError(t, ws.gallery.Reload())
	assert.Len(t, ws.gallery.Items(), 1)
}

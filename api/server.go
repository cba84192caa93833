// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/aouyang1/photoportfolio/config"
	"github.com/aouyang1/photoportfolio/content"
	"github.com/aouyang1/photoportfolio/pipeline"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

//go:embed web/static
var webFiles embed.FS

type WebServer struct {
	router *gin.Engine
	cfg    *config.Config

	gallery    *Gallery
	configFile *content.ConfigFile

	builder      *pipeline.Builder
	localManager *LocalManager

	// Updated requests a rebuild when a builder is set
	Updated chan bool
}

type Option func(*WebServer)

// WithRebuild rebuilds the metadata with builder and reloads the gallery
// whenever lm reports a change or an annotation is saved.
func WithRebuild(builder *pipeline.Builder, lm *LocalManager) Option {
	return func(ws *WebServer) {
		ws.builder = builder
		ws.localManager = lm
	}
}

func NewWebServer(cfg *config.Config, opts ...Option) (*WebServer, error) {
	ws := &WebServer{
		router:     gin.Default(),
		cfg:        cfg,
		gallery:    NewGallery(cfg.MetadataPath(), cfg.Storage.PublicURL),
		configFile: content.NewConfigFile(cfg.ContentConfigPath()),
		Updated:    make(chan bool, 1),
	}
	for _, opt := range opts {
		opt(ws)
	}

	if err := ws.gallery.Reload(); err != nil {
		slog.Warn("unable to load photo metadata, serving an empty gallery", "error", err)
	}

	if err := ws.setupRoutes(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (ws *WebServer) setupRoutes() error {
	// Create filesystem for static files (strip "web/" prefix)
	staticFS, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}

	ws.router.StaticFS("/static", http.FS(staticFS))
	ws.router.Static("/images", ws.cfg.ImagesDir())

	favicon := func(c *gin.Context) {
		data, err := webFiles.ReadFile("web/static/images/favicon.svg")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", data)
	}
	ws.router.GET("/favicon.ico", favicon)
	ws.router.GET("/favicon.svg", favicon)

	ws.router.GET("/", ws.handleIndex)
	ws.router.GET("/api/photos", ws.handleListPhotos)

	adminAPI := ws.router.Group("/api/admin", ws.AdminGuard(false))
	adminAPI.GET("/photos", ws.handleAdminPhotos)
	adminAPI.GET("/config", ws.handleGetConfig)
	adminAPI.POST("/config", ws.handleSaveConfig)
	adminAPI.PUT("/config", ws.handleReplaceConfig)

	adminPages := ws.router.Group("/admin", ws.AdminGuard(true))
	adminPages.GET("/manage-photos", ws.handleManagePhotos)

	return nil
}

// Handler exposes the router, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Run serves until ctx is done and then shuts down gracefully.
func (ws *WebServer) Run(ctx context.Context) error {
	if ws.builder != nil {
		go ws.watchUpdates(ctx)
	}
	if ws.localManager != nil {
		go ws.localManager.Run(ctx)
	}

	srv := &http.Server{
		Addr:    ws.cfg.Addr,
		Handler: ws.router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", ws.cfg.Addr, "env", ws.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server forced to shutdown: %w", err)
	}
	return nil
}

// watchUpdates rebuilds on every change signal until ctx is done.
func (ws *WebServer) watchUpdates(ctx context.Context) {
	var watched chan bool
	if ws.localManager != nil {
		watched = ws.localManager.Updated
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ws.Updated:
		case <-watched:
		}
		slog.Info("found new updates, rebuilding metadata")
		ws.rebuild(ctx)
	}
}

func (ws *WebServer) rebuild(ctx context.Context) {
	if _, err := ws.builder.Run(ctx); err != nil {
		slog.Error("error while rebuilding metadata", "error", err)
		return
	}
	if err := ws.gallery.Reload(); err != nil {
		slog.Error("error while reloading gallery", "error", err)
	}
}

// requestRebuild queues a rebuild without blocking the caller.
func (ws *WebServer) requestRebuild() {
	if ws.builder == nil {
		return
	}
	select {
	case ws.Updated <- true:
	default:
	}
}

package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/aouyang1/photoportfolio/api/models"
	"github.com/aouyang1/photoportfolio/api/web/templates"
	"github.com/aouyang1/photoportfolio/content"
	"github.com/gin-gonic/gin"
)

// AdminGuard admits every request in development and otherwise only requests
// carrying the configured admin secret. Rejected pages redirect home and
// rejected api calls get a 401.
func (ws *WebServer) AdminGuard(page bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ws.adminAllowed(c.GetHeader(models.AdminSecretHeader)) {
			c.Next()
			return
		}
		if page {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
	}
}

func (ws *WebServer) adminAllowed(secret string) bool {
	if ws.cfg.IsDevelopment() {
		return true
	}
	if ws.cfg.AdminSecret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(ws.cfg.AdminSecret)) == 1
}

func (ws *WebServer) adminPhotos() (models.AdminPhotosData, error) {
	md, err := content.LoadMetadata(ws.cfg.MetadataPath())
	if err != nil {
		return models.AdminPhotosData{}, err
	}
	cfg := ws.configFile.Load()

	names := md.Filenames()
	items := make([]models.ManagementItem, 0, len(names))
	for _, name := range names {
		item := models.ManagementItem{Filename: name}
		if entry, ok := cfg[name]; ok {
			item.Configured = true
			item.Config = &entry
		}
		items = append(items, item)
	}

	return models.AdminPhotosData{
		Total:      len(names),
		Configured: len(cfg),
		Items:      items,
	}, nil
}

func (ws *WebServer) handleAdminPhotos(c *gin.Context) {
	data, err := ws.adminPhotos()
	if err != nil {
		slog.Error("unable to read photo metadata", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Unable to read photo metadata, run the build first"})
		return
	}
	c.JSON(http.StatusOK, models.AdminPhotosResponse{Success: true, Data: data})
}

func (ws *WebServer) handleManagePhotos(c *gin.Context) {
	data, err := ws.adminPhotos()
	if err != nil {
		slog.Error("unable to read photo metadata", "error", err)
		c.String(http.StatusInternalServerError, "Unable to read photo metadata, run the build first")
		return
	}
	Render(c, http.StatusOK, templates.AdminPage(data))
}

func (ws *WebServer) handleGetConfig(c *gin.Context) {
	cfg, err := content.LoadConfig(ws.configFile.Path())
	if err != nil {
		slog.Error("unable to read content config", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to read config"})
		return
	}
	c.JSON(http.StatusOK, models.ConfigResponse{Success: true, Data: cfg})
}

func (ws *WebServer) handleSaveConfig(c *gin.Context) {
	var req models.SaveConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Filename == "" || req.Config == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "filename and config are required"})
		return
	}

	if err := ws.configFile.Put(req.Filename, *req.Config); err != nil {
		slog.Error("unable to save content config", "name", req.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save config"})
		return
	}
	slog.Info("saved photo config", "name", req.Filename)
	ws.requestRebuild()

	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Config saved"})
}

func (ws *WebServer) handleReplaceConfig(c *gin.Context) {
	var req models.ReplaceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Configs == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "configs is required"})
		return
	}

	if err := ws.configFile.Replace(req.Configs); err != nil {
		slog.Error("unable to replace content config", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to save config"})
		return
	}
	slog.Info("replaced photo config", "count", len(req.Configs))
	ws.requestRebuild()

	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Configs saved"})
}

package api

import (
	"net/http"
	"sync"

	"github.com/aouyang1/photoportfolio/api/models"
	"github.com/aouyang1/photoportfolio/api/web/templates"
	"github.com/aouyang1/photoportfolio/content"
	"github.com/gin-gonic/gin"
)

// Gallery holds the photo records rendered by the public pages.
type Gallery struct {
	path   string
	prefix string

	mu    sync.RWMutex
	items []content.Item
}

func NewGallery(metadataPath, assetPrefix string) *Gallery {
	return &Gallery{path: metadataPath, prefix: assetPrefix}
}

// Reload rereads the metadata file. The previous records are kept on error.
func (g *Gallery) Reload() error {
	md, err := content.LoadMetadata(g.path)
	if err != nil {
		return err
	}
	items := md.Items()

	g.mu.Lock()
	g.items = items
	g.mu.Unlock()
	return nil
}

// Items returns the records ordered by filename.
func (g *Gallery) Items() []content.Item {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.items
}

func (ws *WebServer) handleIndex(c *gin.Context) {
	Render(c, http.StatusOK, templates.GalleryPage(ws.gallery.Items(), ws.gallery.prefix))
}

func (ws *WebServer) handleListPhotos(c *gin.Context) {
	items := ws.gallery.Items()
	if items == nil {
		items = []content.Item{}
	}
	c.JSON(http.StatusOK, models.PhotoListResponse{
		Photos: items,
		Total:  len(items),
	})
}

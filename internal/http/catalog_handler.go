package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhythm-flow/internal/catalog"
)

// CatalogHandler reenvía consultas al catálogo musical.
type CatalogHandler struct {
	logger  *zap.Logger
	catalog catalog.Client
	errs    errorResponder
}

func NewCatalogHandler(logger *zap.Logger, client catalog.Client, dev bool) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{
		logger:  logger,
		catalog: client,
		errs:    newErrorResponder(logger, dev),
	}
}

// Search maneja GET /api/search?q=.
func (h *CatalogHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		h.errs.fail(c, http.StatusBadRequest, "Missing query parameter")
		return
	}
	h.respond(c, "search", func(ctx context.Context) (json.RawMessage, error) {
		return h.catalog.Search(ctx, q)
	})
}

// Track maneja GET /api/track/:id.
func (h *CatalogHandler) Track(c *gin.Context) {
	id := c.Param("id")
	h.respond(c, "track", func(ctx context.Context) (json.RawMessage, error) {
		return h.catalog.Track(ctx, id)
	})
}

// Album maneja GET /api/album/:id.
func (h *CatalogHandler) Album(c *gin.Context) {
	id := c.Param("id")
	h.respond(c, "album", func(ctx context.Context) (json.RawMessage, error) {
		return h.catalog.Album(ctx, id)
	})
}

// Artist maneja GET /api/artist/:id.
func (h *CatalogHandler) Artist(c *gin.Context) {
	id := c.Param("id")
	h.respond(c, "artist", func(ctx context.Context) (json.RawMessage, error) {
		return h.catalog.Artist(ctx, id)
	})
}

func (h *CatalogHandler) respond(c *gin.Context, kind string, fetch func(context.Context) (json.RawMessage, error)) {
	if h.catalog == nil {
		h.errs.internal(c, http.StatusInternalServerError, "catalog not configured", nil)
		return
	}
	body, err := fetch(c.Request.Context())
	if err != nil {
		var upstream *catalog.UpstreamError
		switch {
		case errors.Is(err, catalog.ErrInvalidQuery):
			h.errs.fail(c, http.StatusBadRequest, "Invalid "+kind+" request")
		case errors.As(err, &upstream):
			h.logger.Warn("catalog upstream error", zap.String("kind", kind), zap.Int("status", upstream.Status))
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"error":  "Failed to fetch " + kind + " from catalog",
				"status": upstream.Status,
			})
		default:
			h.errs.internal(c, http.StatusBadGateway, "Failed to fetch "+kind+" from catalog", err)
		}
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

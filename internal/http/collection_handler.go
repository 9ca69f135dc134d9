package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhythm-flow/internal/service"
)

type CollectionService interface {
	Get(ctx context.Context, owner string) ([]json.RawMessage, error)
	Replace(ctx context.Context, owner string, raw json.RawMessage) error
	AddItem(ctx context.Context, owner string, item json.RawMessage) (bool, error)
	RemoveItem(ctx context.Context, owner, id string) error
}

// CollectionHandler expone la colección de la cuenta autenticada.
type CollectionHandler struct {
	logger      *zap.Logger
	collections CollectionService
	errs        errorResponder
}

func NewCollectionHandler(logger *zap.Logger, collections CollectionService, dev bool) *CollectionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectionHandler{
		logger:      logger,
		collections: collections,
		errs:        newErrorResponder(logger, dev),
	}
}

// GetCollection maneja GET /collection.
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	h.get(c, "items")
}

// ReplaceCollection maneja POST /collection.
func (h *CollectionHandler) ReplaceCollection(c *gin.Context) {
	h.replace(c, "items", "Items must be an array")
}

// GetPlaylists maneja GET /playlists: misma colección bajo la clave "playlists".
func (h *CollectionHandler) GetPlaylists(c *gin.Context) {
	h.get(c, "playlists")
}

// ReplacePlaylists maneja POST /playlists con body {"playlists": [...]}.
func (h *CollectionHandler) ReplacePlaylists(c *gin.Context) {
	h.replace(c, "playlists", "Playlists must be an array")
}

func (h *CollectionHandler) get(c *gin.Context, key string) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	items, err := h.collections.Get(c.Request.Context(), owner)
	if err != nil {
		h.errs.internal(c, http.StatusInternalServerError, "could not load collection", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: items})
}

func (h *CollectionHandler) replace(c *gin.Context, key, invalidMsg string) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req map[string]json.RawMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid replace collection request", zap.Error(err))
		h.errs.fail(c, http.StatusBadRequest, invalidMsg)
		return
	}

	err := h.collections.Replace(c.Request.Context(), owner, req[key])
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, service.ErrInvalidShape):
		h.errs.fail(c, http.StatusBadRequest, invalidMsg)
	default:
		h.errs.internal(c, http.StatusInternalServerError, "could not save collection", err)
	}
}

// AddItem maneja POST /collection/items.
func (h *CollectionHandler) AddItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req struct {
		Item json.RawMessage `json:"item"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Item) == 0 {
		h.errs.fail(c, http.StatusBadRequest, "Item must be an object with an id")
		return
	}

	added, err := h.collections.AddItem(c.Request.Context(), owner, req.Item)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "added": added})
	case errors.Is(err, service.ErrItemNoID):
		h.errs.fail(c, http.StatusBadRequest, "Item must be an object with an id")
	default:
		h.errs.internal(c, http.StatusInternalServerError, "could not save collection", err)
	}
}

// RemoveItem maneja DELETE /collection/items/:id.
func (h *CollectionHandler) RemoveItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.errs.fail(c, http.StatusBadRequest, "Item id required")
		return
	}
	if err := h.collections.RemoveItem(c.Request.Context(), owner, id); err != nil {
		h.errs.internal(c, http.StatusInternalServerError, "could not save collection", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CollectionHandler) owner(c *gin.Context) (string, bool) {
	owner, ok := GetAuthSubject(c)
	if !ok {
		h.errs.fail(c, http.StatusUnauthorized, "No token provided")
		return "", false
	}
	return owner, true
}

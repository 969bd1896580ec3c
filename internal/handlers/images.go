package handlers

import (
	"errors"
	"mime"
	"path/filepath"

	"github.com/Metalzoid/mon-view-grimoire-backend/internal/storage"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ImagesHandler struct {
	Storage storage.Store
}

func NewImagesHandler(store storage.Store) *ImagesHandler {
	return &ImagesHandler{Storage: store}
}

// Serve streams a stored cover image, whatever backend holds it.
func (h *ImagesHandler) Serve(c *fiber.Ctx) error {
	name := sanitizeFilename(c.Params("filename"))
	if name == "" {
		return utils.Error(c, fiber.StatusNotFound, "image not found")
	}

	reader, err := h.Storage.Open(c.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "image not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening image")
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.SendStream(reader)
}

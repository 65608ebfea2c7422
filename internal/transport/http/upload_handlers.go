package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/upload"
)

// UploadHandlers exposes file upload and retrieval endpoints.
type UploadHandlers struct {
	uploads *upload.Service
	log     *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(uploads *upload.Service, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{uploads: uploads, log: logger}
}

// Upload stores one multipart file and returns its descriptor.
// POST /api/files/upload
func (h *UploadHandlers) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to open multipart file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	defer src.Close()

	info, err := h.uploads.Save(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), src)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTypeNotAllowed):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file type is not allowed"})
		case errors.Is(err, upload.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		default:
			h.log.Error().Err(err).Str("file", fileHeader.Filename).Msg("failed to store upload")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "file": info})
}

// Info returns the descriptor of an already-stored file.
// GET /api/files/:filename
func (h *UploadHandlers) Info(c *gin.Context) {
	info, err := h.uploads.Info(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Delete removes a stored file.
// DELETE /api/files/:filename
func (h *UploadHandlers) Delete(c *gin.Context) {
	if err := h.uploads.Delete(c.Param("filename")); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

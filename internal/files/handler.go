package files

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/shared/server/middleware"
	"filevault-backend/internal/shared/server/respond"
	"filevault-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the file service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches file routes to the authenticated router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files", h.upload)
	rg.GET("/files", h.list)
	rg.GET("/files/:id", h.get)
	rg.GET("/files/:id/download", h.download)
	rg.DELETE("/files/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds the upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	description := c.PostForm("description")

	src, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer src.Close()

	file, err := h.Svc.Upload(c.Request.Context(), ident, fileHeader.Filename, description, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "failed to store file", nil)
		}
		return
	}

	c.Set("fileId", file.ID)
	respond.JSON(c, http.StatusCreated, toResponse(file))
}

func (h *Handler) list(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	// Admins may list another user's files.
	userID := c.Query("user_id")

	list, err := h.Svc.List(c.Request.Context(), ident, userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list files", nil)
		}
		return
	}

	resp := make([]FileResponse, 0, len(list))
	for _, file := range list {
		resp = append(resp, toResponse(file))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	file, err := h.Svc.Get(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		respondFileError(c, err, "failed to fetch file")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(file))
}

func (h *Handler) download(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	file, err := h.Svc.Get(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		respondFileError(c, err, "failed to fetch file")
		return
	}
	c.Set("fileId", file.ID)

	written, err := h.Svc.Stream(c.Request.Context(), file, c.Writer)
	if err != nil {
		if !c.Writer.Written() {
			respondFileError(c, err, "failed to read file from storage")
			return
		}
		// Headers are out; the transfer is truncated without retry.
		telemetry.Error("files.stream_truncated", map[string]any{
			"file_id":       file.ID,
			"bytes_written": written,
			"error":         err.Error(),
		})
	}
}

func (h *Handler) delete(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), ident, c.Param("id")); err != nil {
		respondFileError(c, err, "failed to delete file")
		return
	}
	c.Status(http.StatusNoContent)
}

func respondFileError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBlobMissing):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
	default:
		respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", fallback, nil)
	}
}

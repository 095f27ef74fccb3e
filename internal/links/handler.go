package links

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/files"
	"filevault-backend/internal/shared/server/middleware"
	"filevault-backend/internal/shared/server/respond"
	"filevault-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the link service.
type Handler struct {
	Svc   *Service
	Files *files.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, filesSvc *files.Service) *Handler {
	return &Handler{Svc: svc, Files: filesSvc}
}

// RegisterRoutes attaches link management routes to the authenticated
// router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/links", h.create)
	rg.GET("/links", h.list)
	rg.DELETE("/links/:id", h.delete)
}

// RegisterPublicRoutes attaches the unauthenticated download route.
func (h *Handler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/public/:token/", h.download)
}

func (h *Handler) create(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	link, err := h.Svc.Create(c.Request.Context(), ident, req.FileID, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "fileId is required and expiresAt must be in the future", nil)
		case errors.Is(err, files.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create link", nil)
		}
		return
	}

	c.Set("fileId", link.FileID)
	respond.JSON(c, http.StatusCreated, toResponse(link))
}

func (h *Handler) list(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	var list []Link
	var err error
	if fileID := c.Query("file_id"); fileID != "" {
		list, err = h.Svc.List(c.Request.Context(), ident, fileID)
	} else {
		list, err = h.Svc.ListMine(c.Request.Context(), ident)
	}
	if err != nil {
		switch {
		case errors.Is(err, files.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list links", nil)
		}
		return
	}

	resp := make([]LinkResponse, 0, len(list))
	for _, link := range list {
		resp = append(resp, toResponse(link))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) delete(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), ident, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "link not found", nil)
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete link", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// download serves a file through its share token with no authentication.
// Expired and missing links are kept distinguishable on purpose.
func (h *Handler) download(c *gin.Context) {
	link, file, err := h.Svc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, ErrExpired):
			respond.Error(c, http.StatusGone, "link_expired", "link has expired", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "link not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve link", nil)
		}
		return
	}
	c.Set("fileId", file.ID)

	written, err := h.Files.Stream(c.Request.Context(), file, c.Writer)
	if err != nil {
		if !c.Writer.Written() {
			if errors.Is(err, files.ErrBlobMissing) {
				respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
				return
			}
			respond.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "failed to read file from storage", nil)
			return
		}
		telemetry.Error("links.stream_truncated", map[string]any{
			"link_id":       link.ID,
			"file_id":       file.ID,
			"bytes_written": written,
			"error":         err.Error(),
		})
	}
}

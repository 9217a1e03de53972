package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "mediadesk.io/courier/internal/pkg/errors"
)

// GetMediaDependencies handles GET /admin/media/:media_id/dependencies.
func (s *Server) GetMediaDependencies(c *gin.Context) {
	id := c.Param("media_id")
	n, err := s.gallery.DependencyCount(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media_id": id, "dependents": n})
}

// DeleteMedia handles DELETE /admin/media/:media_id[?cascade=true].
func (s *Server) DeleteMedia(c *gin.Context) {
	id := c.Param("media_id")
	cascade := false
	if raw := c.Query("cascade"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "cascade must be a boolean"))
			return
		}
		cascade = v
	}

	removed, err := s.gallery.DeleteMedia(c.Request.Context(), id, cascade)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media_id": id, "line_items_removed": removed})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediadesk.io/courier/internal/pkg/logger"
)

// RunRetentionScan handles POST /jobs/retention-scan for external
// schedulers. It runs the scan inline and returns the summary.
func (s *Server) RunRetentionScan(c *gin.Context) {
	summary := s.scanner.Run(c.Request.Context(), s.now())
	if !summary.Success {
		logger.Error("Retention scan request failed",
			zap.String("actor", callerID(c)),
			zap.String("error", summary.Error),
		)
		c.JSON(http.StatusInternalServerError, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

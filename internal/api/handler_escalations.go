package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetEscalationStats handles GET /api/escalations/stats.
func (h *Handler) GetEscalationStats(c *gin.Context) {
	stats, err := h.monitor.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RunEscalationCheck handles POST /api/escalations/check, an on-demand
// sweep outside the periodic schedule.
func (h *Handler) RunEscalationCheck(c *gin.Context) {
	result := h.monitor.CheckAllActivePasses(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"checked":   result.Checked,
		"escalated": result.Escalated,
		"errors":    result.Errors,
	})
}

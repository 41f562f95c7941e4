package httpapi

import (
	"net/http"

	"voice-campaigns/internal/outbound"

	"github.com/gin-gonic/gin"
)

func (h Handlers) StartOutboundCall(c *gin.Context) {
	var req outbound.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Outbound.Initiate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) OutboundLog(c *gin.Context) {
	evs, err := h.Outbound.Log(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": evs})
}

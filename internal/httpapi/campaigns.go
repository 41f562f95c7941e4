package httpapi

import (
	"context"
	"net/http"

	"voice-campaigns/internal/campaigns"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListCampaigns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"campaigns": h.Campaigns.List()})
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req campaigns.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, err := h.Campaigns.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h Handlers) GetCampaign(c *gin.Context) {
	v, err := h.Campaigns.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h Handlers) CampaignLogs(c *gin.Context) {
	evs, err := h.Campaigns.Logs(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": evs})
}

func (h Handlers) StartCampaign(c *gin.Context)  { h.transition(c, h.Campaigns.Start) }
func (h Handlers) PauseCampaign(c *gin.Context)  { h.transition(c, h.Campaigns.Pause) }
func (h Handlers) ResumeCampaign(c *gin.Context) { h.transition(c, h.Campaigns.Resume) }
func (h Handlers) StopCampaign(c *gin.Context)   { h.transition(c, h.Campaigns.Stop) }

func (h Handlers) transition(c *gin.Context, fn func(context.Context, string) (campaigns.View, error)) {
	v, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

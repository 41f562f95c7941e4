package httpapi

import (
	"net/http"

	"voice-campaigns/internal/calls"
	"voice-campaigns/internal/reporting"

	"github.com/gin-gonic/gin"
)

// ListCalls returns the filtered view. Stats are computed separately over the full set.
func (h Handlers) ListCalls(c *gin.Context) {
	records, err := h.Calls.List(calls.Filter{
		Status: c.Query("status"),
		Date:   c.Query("date"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calls":       records,
		"count":       len(records),
		"sampleData":  h.Calls.SampleData(),
		"refreshedAt": h.Calls.LastRefresh(),
	})
}

func (h Handlers) CallStats(c *gin.Context) {
	stats, err := h.Reporting.Dashboard(c.Request.Context(), reporting.DashboardRequest{
		Now:      h.now(),
		Location: h.Calls.Location(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h Handlers) RefreshCalls(c *gin.Context) {
	c.JSON(http.StatusOK, h.Calls.Refresh(c.Request.Context()))
}

func (h Handlers) GetCall(c *gin.Context) {
	rec, err := h.Calls.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) UpdateCall(c *gin.Context) {
	var a calls.Annotation
	if err := c.ShouldBindJSON(&a); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rec, err := h.Calls.Update(c.Request.Context(), c.Param("id"), a)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) DownloadTranscript(c *gin.Context) {
	exp, err := h.Calls.Transcript(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exp.Filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(exp.Body))
}

func (h Handlers) SearchTranscript(c *gin.Context) {
	res, err := h.Calls.SearchTranscript(c.Param("id"), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// LiveCall asks the calling API for the current state of one call.
func (h Handlers) LiveCall(c *gin.Context) {
	rec, err := h.Calls.Live(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

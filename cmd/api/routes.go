package main

import (
	"log/slog"
	"net/http"

	"voice-campaigns/internal/auth"
	"voice-campaigns/internal/httpapi"
	"voice-campaigns/internal/rbac"
	"voice-campaigns/internal/web"
	"voice-campaigns/pkg/logger"

	"github.com/gin-gonic/gin"
)

// newRouter builds the engine with middleware and every route.
func (a *app) newRouter(log *slog.Logger, h httpapi.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(web.SecurityHeaders())
	r.MaxMultipartMemory = 10 << 20

	var guards []gin.HandlerFunc
	if a.auth != nil {
		guards = append(guards, auth.RequireAccessToken(a.auth), rbac.ReadOnlyUnlessOperator())
	}
	registerRoutes(r, h, a.pages, a.webhook().HandleServerMessage, guards...)
	return r
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, pages *web.Pages, webhook gin.HandlerFunc, guards ...gin.HandlerFunc) {
	// pages
	r.GET("/", pages.Serve(web.DemoPage, http.StatusOK))
	r.GET("/demo", pages.Serve(web.DemoPage, http.StatusOK))
	r.GET("/dashboard", pages.Serve(web.DashboardPage, http.StatusOK))
	r.GET("/analytics", pages.Serve(web.DashboardPage, http.StatusOK))

	// public
	r.GET("/health", h.Health)
	r.GET("/api/config", h.PublicConfig)
	r.POST("/webhooks/vapi", webhook)

	v1 := r.Group("/api/v1")
	v1.Use(guards...)
	{
		v1.GET("/calls", h.ListCalls)
		v1.GET("/calls/stats", h.CallStats)
		v1.POST("/calls/refresh", h.RefreshCalls)
		v1.GET("/calls/:id", h.GetCall)
		v1.PATCH("/calls/:id", h.UpdateCall)
		v1.GET("/calls/:id/transcript", h.DownloadTranscript)
		v1.GET("/calls/:id/transcript/search", h.SearchTranscript)
		v1.GET("/live-calls/:id", h.LiveCall)

		v1.GET("/contact-lists", h.ListContactLists)
		v1.POST("/contact-lists/import", h.ImportContacts)
		v1.GET("/contact-lists/:id", h.GetContactList)
		v1.DELETE("/contact-lists/:id", h.DeleteContactList)
		v1.GET("/contact-lists/:id/export", h.ExportContactList)
		v1.PATCH("/contact-lists/:id/contacts/:contactId", h.UpdateContact)
		v1.DELETE("/contact-lists/:id/contacts/:contactId", h.DeleteContact)
		v1.POST("/contacts", h.AddContact)
		v1.GET("/contacts/template", h.ContactTemplate)

		v1.GET("/campaigns", h.ListCampaigns)
		v1.POST("/campaigns", h.CreateCampaign)
		v1.GET("/campaigns/:id", h.GetCampaign)
		v1.GET("/campaigns/:id/logs", h.CampaignLogs)
		v1.POST("/campaigns/:id/start", h.StartCampaign)
		v1.POST("/campaigns/:id/pause", h.PauseCampaign)
		v1.POST("/campaigns/:id/resume", h.ResumeCampaign)
		v1.POST("/campaigns/:id/stop", h.StopCampaign)

		v1.POST("/outbound-calls", h.StartOutboundCall)
		v1.GET("/outbound-calls/log", h.OutboundLog)
	}

	// Unknown paths get the demo page with a 404.
	r.NoRoute(pages.Serve(web.DemoPage, http.StatusNotFound))
}

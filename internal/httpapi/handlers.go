package httpapi

import (
	"errors"
	"net/http"
	"time"

	"voice-campaigns/internal/calls"
	"voice-campaigns/internal/campaigns"
	"voice-campaigns/internal/config"
	"voice-campaigns/internal/contacts"
	"voice-campaigns/internal/outbound"
	"voice-campaigns/internal/reporting"
	"voice-campaigns/internal/telephony"
	"voice-campaigns/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Config    config.Config
	Calls     *calls.Service
	Reporting *reporting.Service
	Contacts  *contacts.Service
	Campaigns *campaigns.Manager
	Outbound  *outbound.Service

	// Started is the process start time reported by Health.
	Started time.Time
	Now     func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// writeError maps service sentinels onto status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var (
		apiErr *telephony.APIError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooBig):
		status, msg = http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, contacts.ErrMissingColumns),
		errors.Is(err, contacts.ErrNoValidContacts),
		errors.Is(err, contacts.ErrInvalidArgument),
		errors.Is(err, calls.ErrInvalidArgument),
		errors.Is(err, campaigns.ErrInvalidArgument),
		errors.Is(err, outbound.ErrInvalidForm):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, contacts.ErrNotFound),
		errors.Is(err, calls.ErrNotFound),
		errors.Is(err, calls.ErrNoTranscript),
		errors.Is(err, campaigns.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, campaigns.ErrRunnerBusy),
		errors.Is(err, campaigns.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.As(err, &apiErr):
		status, msg = http.StatusBadGateway, apiErr.Friendly()
	}

	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (h Handlers) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(h.Started).Seconds(),
	})
}

type vapiPublicConfig struct {
	BaseURL       string `json:"baseUrl"`
	AssistantID   string `json:"assistantId"`
	PhoneNumberID string `json:"phoneNumberId"`
	Configured    bool   `json:"configured"`
}

type featureFlags struct {
	OutboundCalling   bool `json:"outboundCalling"`
	BulkCalling       bool `json:"bulkCalling"`
	CallAnalytics     bool `json:"callAnalytics"`
	ContactManagement bool `json:"contactManagement"`
}

type publicConfig struct {
	Environment       string           `json:"environment"`
	Version           string           `json:"version"`
	DemoMode          bool             `json:"demoMode"`
	Vapi              vapiPublicConfig `json:"vapi"`
	Features          featureFlags     `json:"features"`
	RefreshIntervalMs int64            `json:"refreshIntervalMs"`
}

// PublicConfig serves the page configuration. The API key stays on the server.
func (h Handlers) PublicConfig(c *gin.Context) {
	cfg := h.Config
	c.JSON(http.StatusOK, publicConfig{
		Environment: cfg.App.Env,
		Version:     cfg.App.Version,
		DemoMode:    cfg.DemoMode(),
		Vapi: vapiPublicConfig{
			BaseURL:       cfg.Vapi.BaseURL,
			AssistantID:   cfg.Vapi.AssistantID,
			PhoneNumberID: cfg.Vapi.PhoneNumberID,
			Configured:    !cfg.DemoMode(),
		},
		Features: featureFlags{
			OutboundCalling:   true,
			BulkCalling:       true,
			CallAnalytics:     true,
			ContactManagement: true,
		},
		RefreshIntervalMs: cfg.Calls.RefreshInterval.Milliseconds(),
	})
}

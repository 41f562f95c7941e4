package telephony

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"voice-campaigns/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerWebhookSecret = "X-Vapi-Secret"

// WebhookHandler converts calling-API server messages to internal events
// and hands them to Sink. No business logic here.
type WebhookHandler struct {
	// Secret, when set, must match the X-Vapi-Secret header.
	Secret string

	Sink func(ctx context.Context, ev CallEvent) error
}

func (h WebhookHandler) HandleServerMessage(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook sink not configured"})
		return
	}
	if h.Secret != "" {
		got := c.GetHeader(headerWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 10<<20))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	ev, err := ParseServerMessage(body)
	if errors.Is(err, ErrUnsupportedMessage) {
		log.Debug("webhook message ignored", "type", ev.Type)
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}
	if err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid server message"})
		return
	}

	if err := h.Sink(c.Request.Context(), ev); err != nil {
		log.Error("webhook event apply failed", "call_id", ev.Call.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "event not applied"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

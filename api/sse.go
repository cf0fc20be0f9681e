package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"cagnotte/domain"
	"cagnotte/domain/entities"
	"cagnotte/events"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// StreamPotEvents handles GET /api/pots/:id/events. The caller must be able to
// view the pot; creators receive full events, other viewers a redacted form.
// The stream ends after the pot is resolved, or right away when it already is.
func (h *Handler) StreamPotEvents(c *gin.Context) {
	potID, ok := potIDParam(c)
	if !ok {
		return
	}

	caller := callerFrom(c)
	view, err := h.service.GetPot(c.Request.Context(), caller, potID, accessTokenFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := h.feed.SubscribePot(ctx, potID)
	if err != nil {
		respondError(c, domain.Unavailable("subscribe to pot events", err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// Comment line so proxies and clients see the stream open immediately
	_, _ = c.Writer.WriteString(":\n\n")
	c.Writer.Flush()

	logger := log.WithFields(log.Fields{
		"pot_id": potID,
		"caller": caller.String(),
		"access": view.AccessLevel.String(),
	})
	logger.Debug("Pot event stream opened")
	defer logger.Debug("Pot event stream closed")

	// A completed pot emits nothing further
	if view.Phase == entities.PhaseCompleted {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.streamsDone:
			return false
		case <-ticker.C:
			_, err := io.WriteString(w, ":\n\n")
			return err == nil
		case event, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type()), sanitizeEvent(event, view.AccessLevel))
			return event.Type() != events.EventTypePotResolved
		}
	})
}

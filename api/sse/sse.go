// Package sse streams catalog change events to logged-in editors.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unrealsaint/lucera2missionparser/cache"
	"github.com/unrealsaint/lucera2missionparser/config"
	"github.com/unrealsaint/lucera2missionparser/editor"
	mw "github.com/unrealsaint/lucera2missionparser/middleware"
	"go.uber.org/zap"
)

const keepaliveInterval = 30 * time.Second

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub cache.PubSub
	sec    config.SecurityConfig
	c      cache.Cache
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, sec: sec, logger: logger}
}

// actionFilter parses ?actions=upsert,delete. Nil means every action.
func actionFilter(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			set[a] = true
		}
	}
	return set
}

// writeEvent frames one catalog event. The event id is the catalog
// revision, so a client can tell when it missed changes.
func writeEvent(w io.Writer, ev editor.Event, payload string) {
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Revision, editor.EventChannel, payload)
}

// ServeSSE handles GET /sse?token=<jwt>[&actions=a,b]. EventSource cannot
// set headers, so the token travels in the query string.
func (h *Handler) ServeSSE(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := mw.ParseToken(tokenStr, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	exists, err := h.c.Exists(ctx, mw.SessionKey(claims.ID))
	cancel()
	if err != nil || !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	only := actionFilter(c.Query("actions"))

	msgCh, unsub, err := h.pubsub.Subscribe(c.Request.Context(), editor.EventChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"editor\":%q}\n\n", claims.Editor())
	c.Writer.Flush()
	h.logger.Debug("sse client connected", zap.String("editor", claims.Editor()))

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			var ev editor.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Warn("dropping malformed catalog event", zap.Error(err))
				continue
			}
			if only != nil && !only[ev.Action] {
				continue
			}
			writeEvent(c.Writer, ev, msg.Payload)
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

package http

import (
	"io"
	"net/http"

	"storefront/internal/events"
	pkgerrors "storefront/pkg/errors"

	"github.com/gin-gonic/gin"
)

const sseBuffer = 16

// SessionEvents streams cart and session changes for the caller's session.
// The first event is the current header state.
func (h *Handler) SessionEvents(c *gin.Context) {
	if h.bus == nil {
		h.writeError(c, pkgerrors.New(pkgerrors.CodeDependency, "live updates are unavailable"))
		return
	}

	ctx := c.Request.Context()
	sid := sessionID(c)
	sess, err := h.sessions.Load(ctx, sid)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ch, cancel := h.bus.Subscribe(events.ForSession(sid), sseBuffer)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("session", sessionResponse(sess))
	c.Writer.Flush()

	h.logg.Info(ctx, "sse.subscribed")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Topic), evt.Payload)
			return true
		}
	})
	h.logg.Info(ctx, "sse.closed")
}

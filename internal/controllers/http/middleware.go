package http

import (
	"time"

	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	sessionIDHeader = "X-Session-ID"

	ctxSessionID = "session_id"
	ctxSession   = "session"
)

func RequestID(logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(logg.WithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}

func Logging(logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logg.WithFields(c.Request.Context(), map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(ctx)
		logg.Info(ctx, "request.start")

		start := time.Now()
		c.Next()

		ctx = logg.WithFields(c.Request.Context(), map[string]any{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		logg.Info(ctx, "request.complete")
	}
}

// Session resolves the shopper's session id from the cookie or the header and
// allocates one when neither carries a valid id.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(sessionIDHeader)
		if sid == "" {
			if cookie, err := c.Cookie(h.opts.CookieName); err == nil {
				sid = cookie
			}
		}
		if _, err := uuid.Parse(sid); err != nil {
			sid = h.sessions.Begin()
		}

		c.SetCookie(h.opts.CookieName, sid, int(h.opts.CookieTTL.Seconds()), "/", "", h.opts.SecureCookie, true)
		c.Header(sessionIDHeader, sid)
		c.Set(ctxSessionID, sid)
		c.Request = c.Request.WithContext(h.logg.WithSessionID(c.Request.Context(), sid))
		c.Next()
	}
}

// RequireSession rejects requests from shoppers who are not logged in.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := h.sessions.Require(c.Request.Context(), sessionID(c))
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(ctxSession, sess)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

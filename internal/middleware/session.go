package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/webgis-dashboard/internal/session"
	"github.com/jengzang/webgis-dashboard/pkg/response"
)

// SessionHeader carries the session token in both directions
const SessionHeader = "X-Session-Token"

const sessionKey = "session"

// Session resolves the caller's session from X-Session-Token or a bearer
// token, creating one when the token is missing or no longer valid. The
// token in effect is echoed back in X-Session-Token.
func Session(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionHeader)
		if token == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
		}
		if token == "" {
			token = c.Query("token")
		}

		s, _, err := mgr.Resolve(c.Request.Context(), token)
		if err != nil {
			response.InternalError(c, "Failed to resolve session", err)
			c.Abort()
			return
		}

		c.Set(sessionKey, s)
		c.Writer.Header().Set(SessionHeader, s.Token())
		c.Next()
	}
}

// CurrentSession returns the session resolved by the Session middleware
func CurrentSession(c *gin.Context) *session.Session {
	s, _ := c.Get(sessionKey)
	sess, _ := s.(*session.Session)
	return sess
}

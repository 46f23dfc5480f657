package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/authgard/authgard/internal/auth"
	"github.com/authgard/authgard/pkg/errors"
	"github.com/authgard/authgard/pkg/response"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "authgard_session"

const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
)

// SessionAuth enforces cookie-session authentication. The session token
// is resolved against the session table on every request; expired and
// revoked sessions are rejected identically to missing ones.
func SessionAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		session, err := svc.GetValidSession(c.Request.Context(), token)
		if err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxUserIDKey, session.UserID)
		c.Set(CtxSessionIDKey, session.SessionID)

		c.Next()
	}
}

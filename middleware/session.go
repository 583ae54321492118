package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionIDKey = "session_id"

// SessionConfig controls the browser session cookie
type SessionConfig struct {
	CookieName string
	MaxAge     int // seconds
	Secure     bool
}

// SessionMiddleware makes sure every request carries a session id cookie and
// exposes the id through the gin context. Unknown or malformed ids are
// replaced with a fresh random one.
func SessionMiddleware(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, sid, cfg.MaxAge, "/", "", cfg.Secure, true)
		}

		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

// SessionIDFromGin returns the session id set by SessionMiddleware
func SessionIDFromGin(c *gin.Context) (string, bool) {
	sid := c.GetString(sessionIDKey)
	return sid, sid != ""
}

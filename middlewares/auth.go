package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillhub/models"
	"skillhub/utils"
)

// SessionCookie carries the signed session token; the Authorization header
// is accepted as a fallback for non-browser clients.
const SessionCookie = "session"

func tokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Request.Header.Get("Authorization")
}

// Authenticate resolves the caller's identity once per request and puts
// userId into the context. Mutating routes sit behind it; no session means
// the request never reaches the coordinator.
func Authenticate(c *gin.Context) {
	token := tokenFrom(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"kind":    models.KindUnauthenticated,
			"message": "Not logged in.",
		})
		return
	}

	userId, err := utils.VerifyToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"kind":    models.KindUnauthenticated,
			"message": "Session is invalid or expired.",
		})
		return
	}

	c.Set("userId", userId)
	c.Next()
}

// CurrentUser is the non-rejecting variant used by GET /me: it resolves the
// identity when a valid session is present and stays silent otherwise.
func CurrentUser(c *gin.Context) {
	if token := tokenFrom(c); token != "" {
		if userId, err := utils.VerifyToken(token); err == nil {
			c.Set("userId", userId)
		}
	}
	c.Next()
}

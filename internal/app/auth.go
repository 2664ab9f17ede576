package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// metricsAuthMiddleware guards /metrics with HTTP Basic Auth. An empty
// password leaves the endpoint open, which is the local-dev default.
func metricsAuthMiddleware(username, password string) gin.HandlerFunc {
	open := password == ""
	return func(c *gin.Context) {
		if open {
			c.Next()
			return
		}

		// Missing credentials compare as empty strings and fail below.
		user, pass, _ := c.Request.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !userOK || !passOK {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}

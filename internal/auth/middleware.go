package auth

import "github.com/gin-gonic/gin"

// Middleware lifts the identity resolved by the upstream gateway into the
// request context. The service trusts these headers; authenticating them is
// the gateway's job.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserContext{
			UserID: c.GetHeader("X-User-Id"),
			Role:   c.GetHeader("X-User-Role"),
		}
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user))
		c.Next()
	}
}

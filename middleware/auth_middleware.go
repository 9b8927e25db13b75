package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"quick-jot/quickjot/services"
	"quick-jot/quickjot/utils/token"
)

// abortWithError writes the error envelope shared with the RPC layer.
func abortWithError(c *gin.Context, status int, code services.ErrorKind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthMiddleware accepts a bearer token from the Authorization header or, for
// websocket upgrades, the "token" query parameter.
func AuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := token.ExtractToken(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, services.KindUnauthorized, err.Error())
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, services.KindUnauthorized, services.MessageOf(services.ErrInvalidToken))
			return
		}

		// Store user info in the context for later use
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

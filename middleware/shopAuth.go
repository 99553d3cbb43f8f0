package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoshop/utils"
)

// ShopUserKey is the gin context key holding the authenticated shop user.
const ShopUserKey = "shopUser"

// JWTAuthShopMiddleware admits requests carrying a valid shop staff token.
func JWTAuthShopMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		user, err := utils.ExtractSubject(tokenString, utils.ShopRole)
		if err != nil {
			zap.L().Debug("rejected shop token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(ShopUserKey, user)
		c.Next()
	}
}

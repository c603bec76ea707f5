package middleware

import (
	"net/http"
	"strings"

	"github.com/annel0/topomap/internal/auth"
	"github.com/gin-gonic/gin"
)

// Ключи gin.Context, которые заполняет JWT
const (
	UsernameKey = "username"
	IsAdminKey  = "is_admin"
)

// JWT проверяет заголовок Authorization: Bearer <token>
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Отсутствует токен авторизации")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Неверный формат токена")
			return
		}

		username, isValid, isAdmin := auth.ValidateJWT(parts[1])
		if !isValid {
			abort(c, http.StatusUnauthorized, "Недействительный токен")
			return
		}

		c.Set(UsernameKey, username)
		c.Set(IsAdminKey, isAdmin)
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов; ставится после JWT
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(IsAdminKey) {
			abort(c, http.StatusForbidden, "Недостаточно прав доступа")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

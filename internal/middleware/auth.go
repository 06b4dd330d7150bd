// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/wastetrack/wastetrack-backend/internal/i18n"
	"github.com/wastetrack/wastetrack-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetString("lang")
		if lang == "" {
			lang = "fr"
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthRequired),
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthInvalidToken),
			})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": i18n.T(lang, i18n.KeyAuthTokenExpired),
			})
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("company_sirets", claims.CompanySirets)
		c.Next()
	}
}

// SiretRequired resolves the SIRET the caller acts for on this request. The
// client names it in the X-Company-Siret header and it must be one of the
// claims' companies.
func SiretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetString("lang")
		if lang == "" {
			lang = "fr"
		}

		siret := c.GetHeader("X-Company-Siret")
		if siret == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": i18n.T(lang, i18n.KeyCompanyNotAllowed),
			})
			c.Abort()
			return
		}

		sirets, exists := c.Get("company_sirets")
		allowed := false
		if exists {
			if list, ok := sirets.([]string); ok {
				for _, s := range list {
					if s == siret {
						allowed = true
						break
					}
				}
			}
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error": i18n.T(lang, i18n.KeyCompanyNotAllowed),
			})
			c.Abort()
			return
		}

		c.Set("caller_siret", siret)
		c.Next()
	}
}

func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}

		// Set user info in context if token is valid
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("company_sirets", claims.CompanySirets)
		c.Next()
	}
}

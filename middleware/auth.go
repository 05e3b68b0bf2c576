package middleware

import (
	"net/http"
	"strings"

	"jaryo/services"
	"jaryo/utils"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// TokenFromRequest reads the session token from the cookie, then from a Bearer header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func RequireAuth(auth services.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), TokenFromRequest(c, cookieName))
		if err != nil {
			if appErr, ok := err.(*services.AppError); ok && appErr.Kind != services.KindAuth {
				utils.Error(c, appErr.HTTPCode, appErr.PublicMessage())
			} else {
				utils.Error(c, http.StatusUnauthorized, "authentication required")
			}
			c.Abort()
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and never rejects.
func OptionalAuth(auth services.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c, cookieName); token != "" {
			if principal, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(principalKey, principal)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			utils.Error(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		if !principal.IsAdmin() {
			utils.Error(c, http.StatusForbidden, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (services.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}, false
	}
	principal, ok := value.(services.Principal)
	return principal, ok
}

package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"complaint-chat/internal/domain"
	"complaint-chat/internal/service"
)

const authClaimsKey = "auth_claims"

// OptionalJWTMiddleware acepta invitados: sin header sigue como guest, con
// un token inválido responde 401.
func OptionalJWTMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}
		if jwtSvc == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication not configured"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// callerIdentity devuelve la identidad autenticada, o nil para invitados.
func callerIdentity(c *gin.Context) *domain.Identity {
	claims, ok := GetAuthClaims(c)
	if !ok {
		return nil
	}
	identity := service.IdentityFromClaims(claims)
	return &identity
}

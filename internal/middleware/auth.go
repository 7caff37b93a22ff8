package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthConfig guarda o token fixo que protege as rotas da API
type AuthConfig struct {
	TokenAPI string
}

// BearerAuth exige um header "Authorization: Bearer {token}" válido.
// A comparação do token é em tempo constante.
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "credencial ausente: envie Authorization: Bearer {token}",
			})
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "esquema de autenticação inválido, use Bearer {token}",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.TokenAPI)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "token não autorizado",
			})
			return
		}

		c.Next()
	}
}

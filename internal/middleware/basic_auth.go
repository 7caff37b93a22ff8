package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// BasicAuthConfig contains configuration for the admin basic auth
type BasicAuthConfig struct {
	Username     string
	PasswordHash string // bcrypt hash
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BasicAuth protects admin endpoints with HTTP Basic credentials
func BasicAuth(cfg BasicAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "credenciais ausentes",
			})
			return
		}

		usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
		if !usernameMatch || !CheckPassword(password, cfg.PasswordHash) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "credenciais inválidas",
			})
			return
		}

		c.Set("username", username)
		c.Next()
	}
}

package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rhythm-flow/internal/service"
)

const authSubjectKey = "auth_subject"

// TokenVerifier valida un bearer token y devuelve la cuenta que representa.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BearerAuthMiddleware exige "Authorization: Bearer <token>".
// Sin token responde 401; token inválido o vencido responde 403.
func BearerAuthMiddleware(logger *zap.Logger, tokens TokenVerifier) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if tokens == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token service not configured"})
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		subject, err := tokens.Verify(token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, service.ErrTokenExpired) {
				reason = "expired"
			}
			logger.Debug("token rejected", zap.String("reason", reason), zap.String("request_id", requestIDFrom(c)))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}

// GetAuthSubject obtiene el identificador autenticado desde el contexto.
func GetAuthSubject(c *gin.Context) (string, bool) {
	subject := c.GetString(authSubjectKey)
	return subject, subject != ""
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

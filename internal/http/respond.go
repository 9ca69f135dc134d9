package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorResponder arma las respuestas de error con forma {"error": "..."}.
// En modo desarrollo los 5xx incluyen el error interno en "details".
type errorResponder struct {
	logger *zap.Logger
	dev    bool
}

func newErrorResponder(logger *zap.Logger, dev bool) errorResponder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return errorResponder{logger: logger, dev: dev}
}

func (r errorResponder) fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func (r errorResponder) internal(c *gin.Context, status int, message string, err error) {
	r.logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestIDFrom(c)),
	)
	body := gin.H{"error": message}
	if r.dev && err != nil {
		body["details"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

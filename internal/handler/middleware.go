package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Josephquito/back-streaming/internal/service"
	"github.com/Josephquito/back-streaming/pkg/response"
)

const identityKey = "identity"

// AuthMiddleware validates the bearer token and stores the caller's
// identity in the request context.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, 401, response.CodeUnauthorized, "falta el token de autorización")
			c.Abort()
			return
		}

		ident, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.ErrorFrom(c, err)
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

func identityFrom(c *gin.Context) service.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(service.Identity); ok {
			return ident
		}
	}
	return service.Identity{}
}

// LoggerMiddleware logs every request with latency and status.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("solicitud atendida")
	}
}

// RecoveryMiddleware turns panics into a 500 instead of killing the server.
func RecoveryMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithField("panic", err).Error("pánico atendiendo la solicitud")
				c.AbortWithStatusJSON(500, gin.H{
					"code":    response.CodeServerError,
					"message": "error interno del servidor",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware allows the frontend to call from another origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

package web

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestID reuses inbound X-Request-Id or generates a new one and echoes it back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewV4().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// GetLogger returns log entry annotated with request scoped fields
func GetLogger(c *gin.Context) *log.Entry {
	return log.WithFields(log.Fields{
		"request_id": GetRequestID(c),
		"ip":         c.ClientIP(),
		"path":       c.Request.URL.Path,
	})
}

// AccessLog writes single log line per request
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l := GetLogger(c).WithFields(log.Fields{
			"method":   c.Request.Method,
			"status":   c.Writer.Status(),
			"size":     c.Writer.Size(),
			"duration": time.Since(start),
		})
		if c.Writer.Status() >= 500 {
			l.Warn("request served")
		} else {
			l.Info("request served")
		}
	}
}

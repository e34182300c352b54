package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sv "github.com/webtor-io/douyin-relay/services/common"
	"github.com/webtor-io/douyin-relay/services/web"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status string `json:"status"`
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// StatusCode maps error kind to outward http status
func StatusCode(k sv.Kind) int {
	switch k {
	case sv.KindInvalidInput:
		return http.StatusBadRequest
	case sv.KindRateLimited:
		return http.StatusTooManyRequests
	case sv.KindUpstreamUnavailable, sv.KindUpstreamFormat:
		return http.StatusBadGateway
	case sv.KindMediaFetchFailed:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders the last error attached to the context. It is the only
// place where failures are turned into responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		kind := sv.KindOf(err)
		code := StatusCode(kind)
		l := web.GetLogger(c).WithError(err).WithField("kind", kind.String())
		if c.Writer.Written() {
			l.Warn("request failed after response was started")
			return
		}
		if code >= http.StatusInternalServerError {
			l.Error("request failed")
		} else {
			l.Info("request rejected")
		}
		c.AbortWithStatusJSON(code, &ErrorResponse{
			Status: "error",
			Code:   code,
			Detail: sv.DetailOf(err),
		})
	}
}

package web

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Recovery turns panics into 500 responses. http.ErrAbortHandler is passed on
// to net/http so the connection is dropped instead of completing the response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			GetLogger(c).
				WithField("panic", rec).
				WithField("stack", string(debug.Stack())).
				Error("recovered from panic")
			if !c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}

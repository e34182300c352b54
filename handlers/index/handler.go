package index

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"

	sv "github.com/webtor-io/douyin-relay/services/common"
)

type Handler struct {
	docsURL string
}

func RegisterHandler(c *cli.Context, r *gin.Engine) {
	h := &Handler{
		docsURL: c.String(sv.DocsURLFlag),
	}
	h.register(r)
}

func (s *Handler) register(r *gin.Engine) {
	r.GET("/", s.index)
}

func (s *Handler) index(c *gin.Context) {
	c.Redirect(http.StatusFound, s.docsURL)
}

package media

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/webtor-io/douyin-relay/handlers/common"
	"github.com/webtor-io/douyin-relay/models"
	sv "github.com/webtor-io/douyin-relay/services/common"
	"github.com/webtor-io/douyin-relay/services/extractor"
	"github.com/webtor-io/douyin-relay/services/ratelimit"
	"github.com/webtor-io/douyin-relay/services/relay"
	"github.com/webtor-io/douyin-relay/services/resolver"
	"github.com/webtor-io/douyin-relay/services/web"
)

var (
	InfoRule = ratelimit.Rule{
		Route:  "info",
		Limit:  10,
		Window: time.Minute,
	}
	// Download streams whole media files through the relay, so it is limited harder.
	DownloadRule = ratelimit.Rule{
		Route:  "download",
		Limit:  5,
		Window: time.Minute,
	}
)

type InfoResponse struct {
	Status   string         `json:"status"`
	VideoID  models.VideoID `json:"video_id"`
	VideoURL string         `json:"video_url"`
	AudioURL string         `json:"audio_url"`
}

type Handler struct {
	resolver resolver.Resolver
	relay    *relay.Relay
}

func RegisterHandler(r *gin.Engine, res resolver.Resolver, rl *relay.Relay, store ratelimit.Store) {
	h := &Handler{
		resolver: res,
		relay:    rl,
	}
	detail := fmt.Sprintf("Too many requests. Limit: %d downloads/min, %d info requests/min",
		DownloadRule.Limit, InfoRule.Limit)

	gr := r.Group("")
	gr.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET"},
		ExposeHeaders: []string{"Content-Disposition", "Content-Length", web.RequestIDHeader},
	}))
	gr.Use(common.ErrorHandler())
	gr.GET("/info", ratelimit.Middleware(store, InfoRule, detail), h.info)
	gr.GET("/download", ratelimit.Middleware(store, DownloadRule, detail), h.download)
}

func (s *Handler) resolve(c *gin.Context) (*models.Resolution, error) {
	u := c.Query("url")
	if u == "" {
		return nil, sv.InvalidInput("Missing required query parameter: url")
	}
	id, err := extractor.Extract(u)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(c.Request.Context(), id)
}

func (s *Handler) info(c *gin.Context) {
	res, err := s.resolve(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, &InfoResponse{
		Status:   "success",
		VideoID:  res.VideoID,
		VideoURL: res.VideoURL,
		AudioURL: res.AudioURL,
	})
}

func (s *Handler) download(c *gin.Context) {
	mt, ok := models.ParseMediaType(c.DefaultQuery("media_type", string(models.MediaTypeVideo)))
	if !ok {
		_ = c.Error(sv.InvalidInput("Invalid media type. Choose 'video' or 'audio'"))
		return
	}
	res, err := s.resolve(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	ctx := c.Request.Context()
	st, err := s.relay.Open(ctx, res.URL(mt))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Type", mt.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", mt.Filename(res.VideoID)))
	if st.ContentLength >= 0 {
		c.Header("Content-Length", strconv.FormatInt(st.ContentLength, 10))
	}
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	n, err := s.relay.Copy(ctx, c.Writer, st)
	l := web.GetLogger(c).WithFields(log.Fields{
		"video_id":   res.VideoID,
		"media_type": mt,
		"relayed":    humanize.Bytes(uint64(n)),
	})
	if err != nil {
		if ctx.Err() == context.Canceled {
			l.Info("client disconnected during download")
			c.Abort()
			return
		}
		// Status and part of the body are already sent, drop the connection so
		// the client sees a failed transfer instead of a complete file.
		l.WithError(err).Warn("download aborted")
		panic(http.ErrAbortHandler)
	}
	l.Info("download completed")
}

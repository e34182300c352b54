package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	webHostFlag           = "host"
	webPortFlag           = "port"
	webTrustedProxiesFlag = "trusted-proxies"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   webHostFlag,
			Usage:  "listening host",
			Value:  "0.0.0.0",
			EnvVar: "WEB_HOST",
		},
		cli.IntFlag{
			Name:   webPortFlag,
			Usage:  "http listening port",
			Value:  8000,
			EnvVar: "WEB_PORT",
		},
		cli.StringSliceFlag{
			Name:   webTrustedProxiesFlag,
			Usage:  "proxies trusted to set X-Forwarded-For (client address is taken from the connection otherwise)",
			EnvVar: "WEB_TRUSTED_PROXIES",
		},
	)
}

// Web serves gin engine over http
type Web struct {
	host string
	port int
	ln   net.Listener
	srv  *http.Server
}

func New(c *cli.Context, r *gin.Engine) (*Web, error) {
	err := r.SetTrustedProxies(c.StringSlice(webTrustedProxiesFlag))
	if err != nil {
		return nil, errors.Wrap(err, "failed to set trusted proxies")
	}
	return &Web{
		host: c.String(webHostFlag),
		port: c.Int(webPortFlag),
		srv: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Web) Serve() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen to tcp connection")
	}
	s.ln = ln
	log.Infof("serving Web at %v", addr)
	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Web) Close() {
	log.Info("closing Web")
	defer func() {
		log.Info("Web closed")
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to shutdown Web gracefully")
	}
}

package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	wi "github.com/webtor-io/douyin-relay/handlers/index"
	wm "github.com/webtor-io/douyin-relay/handlers/media"
	"github.com/webtor-io/douyin-relay/services/common"
	"github.com/webtor-io/douyin-relay/services/ratelimit"
	"github.com/webtor-io/douyin-relay/services/relay"
	"github.com/webtor-io/douyin-relay/services/resolver"
	w "github.com/webtor-io/douyin-relay/services/web"
)

func makeServeCMD() cli.Command {
	serveCMD := cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves web server",
		Action:  serve,
	}
	configureServe(&serveCMD)
	return serveCMD
}

func configureServe(c *cli.Command) {
	c.Flags = cs.RegisterProbeFlags(c.Flags)
	c.Flags = cs.RegisterRedisClientFlags(c.Flags)
	c.Flags = w.RegisterFlags(c.Flags)
	c.Flags = common.RegisterFlags(c.Flags)
	c.Flags = resolver.RegisterFlags(c.Flags)
	c.Flags = relay.RegisterFlags(c.Flags)
	c.Flags = ratelimit.RegisterFlags(c.Flags)
}

func serve(c *cli.Context) error {
	// Setting HTTP Client
	cl := &http.Client{}

	var servers []cs.Servable
	// Setting Probe
	probe := cs.NewProbe(c)
	if probe != nil {
		servers = append(servers, probe)
		defer probe.Close()
	}

	// Setting Gin
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(w.Recovery(), w.RequestID(), w.AccessLog())
	r.RedirectTrailingSlash = false

	// Setting Web
	web, err := w.New(c, r)
	if err != nil {
		return err
	}
	servers = append(servers, web)
	defer web.Close()

	// Setting RateLimit Store
	var store ratelimit.Store
	if c.Bool(ratelimit.UseRedisFlag) {
		redis := cs.NewRedisClient(c)
		defer redis.Close()
		store = ratelimit.NewRedisStore(redis.Get(), "douyin-relay")
	} else {
		ms := ratelimit.NewMemoryStore(time.Minute)
		defer ms.Close()
		store = ms
	}

	// Setting Resolver
	res, err := resolver.New(c, cl)
	if err != nil {
		return err
	}

	// Setting Relay
	rl := relay.New(c)

	// Setting IndexHandler
	wi.RegisterHandler(c, r)

	// Setting MediaHandler
	wm.RegisterHandler(r, res, rl, store)

	// Setting Serve
	serve := cs.NewServe(servers...)

	// And SERVE!
	err = serve.Serve()
	if err != nil {
		log.WithError(err).Error("got server error")
	}
	return err
}

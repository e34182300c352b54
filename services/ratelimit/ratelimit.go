package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	sv "github.com/webtor-io/douyin-relay/services/common"
)

const UseRedisFlag = "rate-limit-redis"

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.BoolFlag{
			Name:   UseRedisFlag,
			Usage:  "keep rate limit counters in redis instead of process memory",
			EnvVar: "RATE_LIMIT_REDIS",
		},
	)
}

// Store counts hits per key in fixed windows.
// Allow increments the counter for key and reports whether it is still within limit.
// When not allowed, retryAfter is the time left until the window resets.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

// Rule limits a single route
type Rule struct {
	Route  string
	Limit  int
	Window time.Duration
}

func (r Rule) key(ip string) string {
	return fmt.Sprintf("%s:%s", r.Route, ip)
}

// Middleware rejects requests exceeding rule for the caller address with a
// rate limited error attached to the context. Store failures let the request through.
func Middleware(store Store, rule Rule, detail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, retryAfter, err := store.Allow(c.Request.Context(), rule.key(ip), rule.Limit, rule.Window)
		if err != nil {
			log.WithError(err).
				WithField("route", rule.Route).
				WithField("ip", ip).
				Warn("rate limit store failed, allowing request")
			c.Next()
			return
		}
		if !allowed {
			log.WithFields(log.Fields{
				"route": rule.Route,
				"ip":    ip,
				"limit": rule.Limit,
			}).Info("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			_ = c.Error(sv.NewError(sv.KindRateLimited, detail, nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

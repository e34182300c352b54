package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"

	"github.com/webtor-io/douyin-relay/models"
	sv "github.com/webtor-io/douyin-relay/services/common"
)

const (
	resolverEndpointFlag = "resolver-endpoint"
	resolverTimeoutFlag  = "resolver-timeout"
	resolverRPSFlag      = "resolver-rps"

	canonicalVideoURL = "https://www.douyin.com/video/%s"
	maxResponseSize   = 2 << 20
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   resolverEndpointFlag,
			Usage:  "resolver api endpoint",
			Value:  "https://api.douyin.wtf/api",
			EnvVar: "RESOLVER_ENDPOINT",
		},
		cli.DurationFlag{
			Name:   resolverTimeoutFlag,
			Usage:  "resolver api request timeout",
			Value:  15 * time.Second,
			EnvVar: "RESOLVER_TIMEOUT",
		},
		cli.Float64Flag{
			Name:   resolverRPSFlag,
			Usage:  "max outbound requests per second to resolver api (0 - unlimited)",
			Value:  0,
			EnvVar: "RESOLVER_RPS",
		},
	)
}

// Resolver turns a video id into direct media URLs
type Resolver interface {
	Resolve(ctx context.Context, id models.VideoID) (*models.Resolution, error)
}

type Config struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	RPS       float64
}

// Client resolves video ids with a single request to the upstream resolver api
type Client struct {
	cl       *http.Client
	cfg      Config
	endpoint *url.URL
	limiter  *rate.Limiter
}

var _ Resolver = (*Client)(nil)

func New(c *cli.Context, cl *http.Client) (*Client, error) {
	cfg := Config{
		Endpoint:  c.String(resolverEndpointFlag),
		UserAgent: c.String(sv.UserAgentFlag),
		Timeout:   c.Duration(resolverTimeoutFlag),
		RPS:       c.Float64(resolverRPSFlag),
	}
	log.WithFields(log.Fields{
		"endpoint": cfg.Endpoint,
		"timeout":  cfg.Timeout,
		"rps":      cfg.RPS,
	}).Info("resolver api configured")
	return NewClient(cl, cfg)
}

func NewClient(cl *http.Client, cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse resolver endpoint %q", cfg.Endpoint)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("resolver endpoint %q must be an absolute http(s) url", cfg.Endpoint)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = sv.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	var l *rate.Limiter
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		l = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return &Client{
		cl:       cl,
		cfg:      cfg,
		endpoint: u,
		limiter:  l,
	}, nil
}

func (s *Client) requestURL(id models.VideoID) string {
	u := *s.endpoint
	q := u.Query()
	q.Set("url", fmt.Sprintf(canonicalVideoURL, id))
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Client) Resolve(ctx context.Context, id models.VideoID) (*models.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, sv.NewError(sv.KindUpstreamUnavailable, "API request failed: resolver is busy", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.cl.Do(req)
	if err != nil {
		return nil, sv.NewError(sv.KindUpstreamUnavailable, "API request failed: resolver unreachable", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, sv.NewError(sv.KindUpstreamUnavailable,
			fmt.Sprintf("API request failed: resolver returned status %d", resp.StatusCode), nil)
	}

	res, err := decodePayload(io.LimitReader(resp.Body, maxResponseSize), id)
	if err != nil {
		return nil, sv.NewError(sv.KindUpstreamFormat, "API response error: unexpected resolver response", err)
	}
	log.WithFields(log.Fields{
		"video_id": id,
	}).Debug("video resolved")
	return res, nil
}

package relay

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	sv "github.com/webtor-io/douyin-relay/services/common"
)

const (
	mediaTimeoutFlag = "media-timeout"

	DefaultChunkSize = 1 << 20
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.DurationFlag{
			Name:   mediaTimeoutFlag,
			Usage:  "media host connect and response header timeout",
			Value:  30 * time.Second,
			EnvVar: "MEDIA_TIMEOUT",
		},
	)
}

type Config struct {
	UserAgent string
	Timeout   time.Duration
	ChunkSize int
}

// Relay fetches media from upstream hosts and copies it to the caller in bounded chunks
type Relay struct {
	cl  *http.Client
	cfg Config
}

// Stream is an open upstream media response owned by a single request
type Stream struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentType   string
}

func (s *Stream) Close() error {
	return s.Body.Close()
}

func New(c *cli.Context) *Relay {
	return NewRelay(Config{
		UserAgent: c.String(sv.UserAgentFlag),
		Timeout:   c.Duration(mediaTimeoutFlag),
	})
}

func NewRelay(cfg Config) *Relay {
	if cfg.UserAgent == "" {
		cfg.UserAgent = sv.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Relay{
		cl:  newClient(cfg.Timeout),
		cfg: cfg,
	}
}

// newClient has no overall deadline, media bodies may take longer than
// timeout to transfer. Only connecting and waiting for headers are bounded.
func newClient(timeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	tr.TLSHandshakeTimeout = timeout
	tr.ResponseHeaderTimeout = timeout
	return &http.Client{
		Transport: tr,
	}
}

// Open starts fetching url. Cancelling ctx aborts the transfer.
func (s *Relay) Open(ctx context.Context, url string) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, sv.NewError(sv.KindMediaFetchFailed, "Download failed: invalid media url", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.cl.Do(req)
	if err != nil {
		return nil, sv.NewError(sv.KindMediaFetchFailed, "Download failed: media host unreachable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, sv.NewError(sv.KindMediaFetchFailed,
			fmt.Sprintf("Download failed: media host returned status %d", resp.StatusCode), nil)
	}
	return &Stream{
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
	}, nil
}

// Copy relays st to w chunk by chunk and closes st. Every write is at most
// ChunkSize bytes and is flushed before the next read.
func (s *Relay) Copy(ctx context.Context, w io.Writer, st *Stream) (int64, error) {
	defer func() {
		_ = st.Close()
	}()
	var (
		total int64
		buf   = make([]byte, s.cfg.ChunkSize)
	)
	fl, _ := w.(http.Flusher)
	for {
		if err := ctx.Err(); err != nil {
			return total, errors.Wrap(err, "relay cancelled")
		}
		n, rerr := fill(st.Body, buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			total += int64(wn)
			if werr != nil {
				return total, errors.Wrap(werr, "failed to write chunk")
			}
			if fl != nil {
				fl.Flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return total, errors.Wrap(rerr, "failed to read chunk")
		}
	}
	log.WithFields(log.Fields{
		"bytes": total,
		"size":  humanize.Bytes(uint64(total)),
	}).Debug("media relayed")
	return total, nil
}

// fill reads into buf until it is full or r fails. Unlike io.ReadFull it
// returns io.EOF only when r itself reports the end of the body, so a body
// cut short by the upstream stays an error.
func fill(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

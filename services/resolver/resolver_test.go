package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sv "github.com/webtor-io/douyin-relay/services/common"
)

const validPayload = `{
	"status": "success",
	"type": "video",
	"video_data": {
		"wm_video_url": "https://cdn.example.com/wm/7345.mp4",
		"nwm_video_url": "https://cdn.example.com/nwm/7345.mp4"
	},
	"music_data": {
		"title": "original sound",
		"play_url": {
			"uri": "https://cdn.example.com/music/7345.mp3",
			"url_list": ["https://cdn.example.com/music/7345.mp3"]
		}
	}
}`

func newTestServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mustClient(t *testing.T, cl *http.Client, cfg Config) *Client {
	t.Helper()
	c, err := NewClient(cl, cfg)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "api.douyin.wtf/api", "ftp://api.douyin.wtf/api", "https://", "http://[::1"} {
		t.Run(endpoint, func(t *testing.T) {
			cl, err := NewClient(http.DefaultClient, Config{Endpoint: endpoint})
			require.Error(t, err)
			assert.Nil(t, cl)
		})
	}
}

func TestClient_Resolve(t *testing.T) {
	var (
		gotUA  string
		gotURL string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotURL = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(validPayload))
	}))
	defer srv.Close()

	cl := mustClient(t, srv.Client(), Config{Endpoint: srv.URL + "/api"})
	res, err := cl.Resolve(context.Background(), "7345")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/nwm/7345.mp4", res.VideoURL)
	assert.Equal(t, "https://cdn.example.com/music/7345.mp3", res.AudioURL)
	assert.EqualValues(t, "7345", res.VideoID)
	assert.Equal(t, sv.DefaultUserAgent, gotUA)
	assert.Equal(t, "https://www.douyin.com/video/7345", gotURL)
}

func TestClient_ResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind sv.Kind
		contains string
	}{
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"detail":"boom"}`,
			wantKind: sv.KindUpstreamUnavailable,
			contains: "API request failed",
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `not found`,
			wantKind: sv.KindUpstreamUnavailable,
			contains: "status 404",
		},
		{
			name:     "invalid json",
			status:   http.StatusOK,
			body:     `<html>captcha</html>`,
			wantKind: sv.KindUpstreamFormat,
			contains: "API response error",
		},
		{
			name:     "missing video_data",
			status:   http.StatusOK,
			body:     `{"music_data":{"play_url":{"uri":"https://a/1.mp3"}}}`,
			wantKind: sv.KindUpstreamFormat,
			contains: "Invalid API response structure",
		},
		{
			name:     "missing music_data",
			status:   http.StatusOK,
			body:     `{"video_data":{"nwm_video_url":"https://v/1.mp4"}}`,
			wantKind: sv.KindUpstreamFormat,
			contains: "Invalid API response structure",
		},
		{
			name:     "empty video url",
			status:   http.StatusOK,
			body:     `{"video_data":{"nwm_video_url":""},"music_data":{"play_url":{"uri":"https://a/1.mp3"}}}`,
			wantKind: sv.KindUpstreamFormat,
			contains: "nwm_video_url",
		},
		{
			name:     "missing play url",
			status:   http.StatusOK,
			body:     `{"video_data":{"nwm_video_url":"https://v/1.mp4"},"music_data":{}}`,
			wantKind: sv.KindUpstreamFormat,
			contains: "play_url",
		},
		{
			name:     "wrong field type",
			status:   http.StatusOK,
			body:     `{"video_data":"https://v/1.mp4","music_data":{"play_url":{"uri":"https://a/1.mp3"}}}`,
			wantKind: sv.KindUpstreamFormat,
			contains: "API response error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := newTestServer(t, tt.status, tt.body, &hits)
			cl := mustClient(t, srv.Client(), Config{Endpoint: srv.URL})

			res, err := cl.Resolve(context.Background(), "1")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantKind, sv.KindOf(err))
			assert.Contains(t, err.Error(), tt.contains)
			assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
		})
	}
}

func TestClient_ResolveTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cl := mustClient(t, srv.Client(), Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := cl.Resolve(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, sv.KindUpstreamUnavailable, sv.KindOf(err))
	assert.Contains(t, sv.DetailOf(err), "API request failed")
}

func TestClient_ResolveUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	cl := mustClient(t, http.DefaultClient, Config{Endpoint: u})
	_, err := cl.Resolve(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, sv.KindUpstreamUnavailable, sv.KindOf(err))
	assert.NotContains(t, sv.DetailOf(err), "127.0.0.1")
}

func TestClient_Throttle(t *testing.T) {
	var hits int32
	srv := newTestServer(t, http.StatusOK, validPayload, &hits)
	cl := mustClient(t, srv.Client(), Config{Endpoint: srv.URL, RPS: 1, Timeout: 100 * time.Millisecond})

	_, err := cl.Resolve(context.Background(), "1")
	require.NoError(t, err)

	_, err = cl.Resolve(context.Background(), "2")
	require.Error(t, err)
	assert.Equal(t, sv.KindUpstreamUnavailable, sv.KindOf(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webtor-io/douyin-relay/models"
	sv "github.com/webtor-io/douyin-relay/services/common"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.VideoID
	}{
		{"douyin short link", "https://v.douyin.com/iRNBho6u/", "iRNBho6u"},
		{"douyin short link over http", "http://v.douyin.com/ABC123", "ABC123"},
		{"douyin canonical", "https://www.douyin.com/video/7345678901234567890", "7345678901234567890"},
		{"douyin canonical with query", "https://www.douyin.com/video/7345678901234567890?previous_page=app", "7345678901234567890"},
		{"tiktok short link", "https://vm.tiktok.com/ZMabc123/", "ZMabc123"},
		{"share text around link", "8.97 copy this https://v.douyin.com/XyZ_9/ and open app", "XyZ_9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFirstPatternWins(t *testing.T) {
	got, err := Extract("https://vm.tiktok.com/TIK/ https://v.douyin.com/DOU/")
	require.NoError(t, err)
	assert.Equal(t, models.VideoID("DOU"), got)
}

func TestExtractInvalid(t *testing.T) {
	for _, u := range []string{
		"",
		"not a url",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.douyin.com/video/abc",
		"ftp://v.douyin.com/ABC123/",
	} {
		t.Run(u, func(t *testing.T) {
			id, err := Extract(u)
			require.Error(t, err)
			assert.Empty(t, id)
			assert.Equal(t, sv.KindInvalidInput, sv.KindOf(err))
			for _, f := range SupportedFormats() {
				assert.Contains(t, err.Error(), f)
			}
		})
	}
}

package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/webtor-io/douyin-relay/models"
	sv "github.com/webtor-io/douyin-relay/services/common"
)

type pattern struct {
	re      *regexp.Regexp
	example string
}

// Order matters, first match wins.
var patterns = []pattern{
	{regexp.MustCompile(`https?://v\.douyin\.com/(\w+)`), "https://v.douyin.com/ABC123/"},
	{regexp.MustCompile(`https?://www\.douyin\.com/video/(\d+)`), "https://www.douyin.com/video/1234567890123456789"},
	{regexp.MustCompile(`https?://vm\.tiktok\.com/(\w+)`), "https://vm.tiktok.com/ABC123/"},
}

// SupportedFormats returns example share links for every accepted URL shape
func SupportedFormats() []string {
	res := make([]string, len(patterns))
	for i, p := range patterns {
		res[i] = p.example
	}
	return res
}

// Extract returns video id captured by the first matching pattern
func Extract(url string) (models.VideoID, error) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(url)
		if len(m) > 1 && m[1] != "" {
			return models.VideoID(m[1]), nil
		}
	}
	return "", sv.InvalidInput(invalidURLMessage())
}

func invalidURLMessage() string {
	var sb strings.Builder
	sb.WriteString("Invalid Douyin URL. Supported formats:")
	for i, f := range SupportedFormats() {
		sb.WriteString(fmt.Sprintf(" %d. %s", i+1, f))
	}
	return sb.String()
}

package models

import "fmt"

// VideoID is a platform-assigned video token extracted from a share link
type VideoID string

// Resolution holds direct watermark-free media URLs for a single video
type Resolution struct {
	VideoID  VideoID `json:"video_id"`
	VideoURL string  `json:"video_url"`
	AudioURL string  `json:"audio_url"`
}

type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case MediaTypeVideo, MediaTypeAudio:
		return MediaType(s), true
	}
	return "", false
}

func (t MediaType) ContentType() string {
	if t == MediaTypeAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}

func (t MediaType) Extension() string {
	if t == MediaTypeAudio {
		return ".mp3"
	}
	return ".mp4"
}

// Filename returns attachment filename like video_7345678901234567890.mp4
func (t MediaType) Filename(id VideoID) string {
	return fmt.Sprintf("%s_%s%s", t, id, t.Extension())
}

// URL selects the media URL matching t
func (r *Resolution) URL(t MediaType) string {
	if t == MediaTypeAudio {
		return r.AudioURL
	}
	return r.VideoURL
}

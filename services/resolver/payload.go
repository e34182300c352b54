package resolver

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/webtor-io/douyin-relay/models"
)

// payload mirrors the upstream resolver response. The upstream API is
// undocumented, only the fields used for resolution are mapped.
type payload struct {
	VideoData *struct {
		NwmVideoURL string `json:"nwm_video_url"`
	} `json:"video_data"`
	MusicData *struct {
		PlayURL *struct {
			URI string `json:"uri"`
		} `json:"play_url"`
	} `json:"music_data"`
}

func decodePayload(r io.Reader, id models.VideoID) (*models.Resolution, error) {
	var p payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	if p.VideoData == nil || p.MusicData == nil {
		return nil, errors.New("Invalid API response structure")
	}
	if p.VideoData.NwmVideoURL == "" {
		return nil, errors.New("missing video_data.nwm_video_url")
	}
	if p.MusicData.PlayURL == nil || p.MusicData.PlayURL.URI == "" {
		return nil, errors.New("missing music_data.play_url.uri")
	}
	return &models.Resolution{
		VideoID:  id,
		VideoURL: p.VideoData.NwmVideoURL,
		AudioURL: p.MusicData.PlayURL.URI,
	}, nil
}

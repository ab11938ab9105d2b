package provider

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
)

const defaultTTSURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// TTSClient is the speech synthesis provider.
type TTSClient struct {
	client *resty.Client
	url    string
	tokens TokenSource
	model  string
}

// NewTTSClient creates a Cloud TTS client. An empty url uses the public endpoint.
func NewTTSClient(url string, tokens TokenSource, model string, timeout time.Duration) *TTSClient {
	if url == "" {
		url = defaultTTSURL
	}
	return &TTSClient{
		client: newRestyClient(timeout),
		url:    url,
		tokens: tokens,
		model:  model,
	}
}

// Model returns the voice model label recorded on posts.
func (c *TTSClient) Model() string { return c.model }

type ttsRequest struct {
	Input struct {
		SSML string `json:"ssml"`
	} `json:"input"`
	Voice       domain.VoiceSpec `json:"voice"`
	AudioConfig ttsAudioConfig   `json:"audioConfig"`
}

type ttsAudioConfig struct {
	AudioEncoding    string   `json:"audioEncoding"`
	SpeakingRate     float64  `json:"speakingRate"`
	Pitch            float64  `json:"pitch"`
	VolumeGainDb     float64  `json:"volumeGainDb"`
	EffectsProfileID []string `json:"effectsProfileId"`
}

type ttsResponse struct {
	AudioContent string `json:"audioContent"`
}

var ssmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// SSML converts a narration script into SSML. Ellipses become half-second
// pauses and line breaks shorter ones.
func SSML(script string) string {
	s := ssmlEscaper.Replace(strings.TrimSpace(script))
	s = strings.ReplaceAll(s, "...", `<break time="500ms"/>`)
	s = strings.ReplaceAll(s, "\n", `<break time="300ms"/>`)
	return "<speak>" + s + "</speak>"
}

// Synthesize renders script with the given voice as MP3.
func (c *TTSClient) Synthesize(ctx context.Context, script string, voice domain.VoiceSpec) (*domain.MediaArtifact, error) {
	var body ttsRequest
	body.Input.SSML = SSML(script)
	body.Voice = voice
	body.AudioConfig = ttsAudioConfig{
		AudioEncoding:    "MP3",
		SpeakingRate:     0.95,
		Pitch:            0,
		VolumeGainDb:     2.0,
		EffectsProfileID: []string{"headphone-class-device"},
	}

	r, err := authorized(ctx, c.client, c.tokens, NameTTS)
	if err != nil {
		return nil, err
	}

	var out ttsResponse
	resp, err := r.SetBody(&body).SetResult(&out).Post(c.url)
	if err := checkResponse(NameTTS, resp, err); err != nil {
		return nil, err
	}
	if out.AudioContent == "" {
		return nil, malformed(NameTTS, "no audio in response")
	}

	data, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, malformed(NameTTS, "audio is not valid base64")
	}
	return &domain.MediaArtifact{Data: data, ContentType: domain.ContentTypeMPEG, Model: c.model}, nil
}

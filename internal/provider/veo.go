package provider

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/prompts"
)

// VideoRequest is one long-running video generation job.
type VideoRequest struct {
	Prompt          string
	NegativePrompt  string
	AspectRatio     string
	Style           string
	DurationSeconds int
	// Image, when set, is the first frame the clip animates from.
	Image []byte
	// OutputURI is the storage prefix the job writes into, e.g. gs://bucket/ai-video/{id}/
	OutputURI string
}

// VideoStatus is the state of a video job at one poll.
type VideoStatus struct {
	Done       bool
	StorageURI string
	Inline     []byte
	// Failure is the operation's own error message when it finished unsuccessfully.
	Failure string
}

// VeoClient is the video generation provider.
type VeoClient struct {
	client *resty.Client
	vertex VertexConfig
	tokens TokenSource
	model  string
}

// NewVeoClient creates a Veo client.
func NewVeoClient(vertex VertexConfig, tokens TokenSource, model string) *VeoClient {
	return &VeoClient{
		client: newRestyClient(vertex.Timeout),
		vertex: vertex,
		tokens: tokens,
		model:  model,
	}
}

// Model returns the video model name.
func (c *VeoClient) Model() string { return c.model }

type veoRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoParameters struct {
	AspectRatio      string `json:"aspectRatio"`
	DurationSeconds  int    `json:"durationSeconds"`
	SampleCount      int    `json:"sampleCount"`
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	PersonGeneration string `json:"personGeneration"`
	StorageURI       string `json:"storageUri,omitempty"`
}

type veoSample struct {
	GCSURI             string `json:"gcsUri"`
	URI                string `json:"uri"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GeneratedSamples []struct {
			Video veoSample `json:"video"`
		} `json:"generatedSamples"`
		Videos      []veoSample `json:"videos"`
		Predictions []veoSample `json:"predictions"`
	} `json:"response"`
}

// SubmitVideo starts a generation job and returns its operation handle.
func (c *VeoClient) SubmitVideo(ctx context.Context, req VideoRequest) (string, error) {
	prompt := req.Prompt
	if req.Style == "cinematic" {
		prompt += prompts.CinematicSuffix
	}
	ratio := req.AspectRatio
	if ratio != "16:9" {
		ratio = "9:16"
	}
	duration := req.DurationSeconds
	if duration <= 0 {
		duration = 6
	}

	instance := veoInstance{Prompt: prompt}
	if len(req.Image) > 0 {
		instance.Image = &veoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Image),
			MimeType:           domain.ContentTypePNG,
		}
	}

	r, err := authorized(ctx, c.client, c.tokens, NameVeo)
	if err != nil {
		return "", err
	}

	var op veoOperation
	resp, err := r.
		SetBody(veoRequest{
			Instances: []veoInstance{instance},
			Parameters: veoParameters{
				AspectRatio:      ratio,
				DurationSeconds:  duration,
				SampleCount:      1,
				NegativePrompt:   req.NegativePrompt,
				PersonGeneration: "allow_adult",
				StorageURI:       req.OutputURI,
			},
		}).
		SetResult(&op).
		Post(c.vertex.modelURL(c.model, "predictLongRunning"))
	if err := checkResponse(NameVeo, resp, err); err != nil {
		return "", err
	}
	return op.Name, nil
}

// PollVideo fetches the state of an operation. Every call acquires a new token.
func (c *VeoClient) PollVideo(ctx context.Context, handle string) (*VideoStatus, error) {
	r, err := authorized(ctx, c.client, c.tokens, NameVeo)
	if err != nil {
		return nil, err
	}

	var op veoOperation
	resp, err := r.SetResult(&op).Get(fmt.Sprintf("%s/%s", c.vertex.baseURL(), handle))
	if err := checkResponse(NameVeo, resp, err); err != nil {
		return nil, err
	}
	if !op.Done {
		return &VideoStatus{}, nil
	}
	if op.Error != nil {
		return &VideoStatus{Done: true, Failure: op.Error.Message}, nil
	}

	status := &VideoStatus{Done: true}
	sample, ok := op.firstSample()
	if !ok {
		return status, nil
	}
	switch {
	case sample.GCSURI != "":
		status.StorageURI = sample.GCSURI
	case sample.URI != "":
		status.StorageURI = sample.URI
	case sample.BytesBase64Encoded != "":
		data, err := base64.StdEncoding.DecodeString(sample.BytesBase64Encoded)
		if err != nil {
			return nil, malformed(NameVeo, "video is not valid base64")
		}
		status.Inline = data
	}
	return status, nil
}

func (op *veoOperation) firstSample() (veoSample, bool) {
	if op.Response == nil {
		return veoSample{}, false
	}
	switch {
	case len(op.Response.GeneratedSamples) > 0:
		return op.Response.GeneratedSamples[0].Video, true
	case len(op.Response.Videos) > 0:
		return op.Response.Videos[0], true
	case len(op.Response.Predictions) > 0:
		return op.Response.Predictions[0], true
	}
	return veoSample{}, false
}

package provider

import (
	"context"
	"encoding/base64"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/prompts"
)

// ImageRequest is one image generation call.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Style          string
}

// EditRequest is one image edit call against a source image.
type EditRequest struct {
	Image       []byte
	Prompt      string
	AspectRatio string
}

var imagenAspectRatios = map[string]bool{"9:16": true, "1:1": true, "16:9": true, "4:3": true}

// ImagenClient is the image generation provider.
type ImagenClient struct {
	client    *resty.Client
	vertex    VertexConfig
	tokens    TokenSource
	model     string
	editModel string
}

// NewImagenClient creates an Imagen client.
func NewImagenClient(vertex VertexConfig, tokens TokenSource, model, editModel string) *ImagenClient {
	return &ImagenClient{
		client:    newRestyClient(vertex.Timeout),
		vertex:    vertex,
		tokens:    tokens,
		model:     model,
		editModel: editModel,
	}
}

// Model returns the generation model name.
func (c *ImagenClient) Model() string { return c.model }

type imagenInstance struct {
	Prompt string       `json:"prompt"`
	Image  *imagenBytes `json:"image,omitempty"`
}

type imagenBytes struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

type imagenParameters struct {
	SampleCount       int    `json:"sampleCount"`
	AspectRatio       string `json:"aspectRatio,omitempty"`
	NegativePrompt    string `json:"negativePrompt,omitempty"`
	SafetyFilterLevel string `json:"safetyFilterLevel"`
	PersonGeneration  string `json:"personGeneration"`
	AddWatermark      *bool  `json:"addWatermark,omitempty"`
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage renders one image. Unsupported aspect ratios fall back to 9:16.
func (c *ImagenClient) GenerateImage(ctx context.Context, req ImageRequest) (*domain.MediaArtifact, error) {
	prompt := req.Prompt
	if req.Style == "photorealistic" {
		prompt += prompts.PhotorealisticSuffix
	}
	ratio := req.AspectRatio
	if !imagenAspectRatios[ratio] {
		ratio = "9:16"
	}
	noWatermark := false

	body := imagenRequest{
		Instances: []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{
			SampleCount:       1,
			AspectRatio:       ratio,
			NegativePrompt:    req.NegativePrompt,
			SafetyFilterLevel: "block_medium_and_above",
			PersonGeneration:  "allow_adult",
			AddWatermark:      &noWatermark,
		},
	}

	data, err := c.predict(ctx, c.model, &body)
	if err != nil {
		return nil, err
	}
	return &domain.MediaArtifact{
		Data:        data,
		ContentType: domain.ContentTypePNG,
		Model:       c.model,
		AspectRatio: ratio,
	}, nil
}

// EditImage transforms a source image according to the prompt.
func (c *ImagenClient) EditImage(ctx context.Context, req EditRequest) (*domain.MediaArtifact, error) {
	body := imagenRequest{
		Instances: []imagenInstance{{
			Prompt: req.Prompt,
			Image:  &imagenBytes{BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Image)},
		}},
		Parameters: imagenParameters{
			SampleCount:       1,
			SafetyFilterLevel: "block_medium_and_above",
			PersonGeneration:  "allow_adult",
		},
	}

	data, err := c.predict(ctx, c.editModel, &body)
	if err != nil {
		return nil, err
	}
	return &domain.MediaArtifact{
		Data:        data,
		ContentType: domain.ContentTypePNG,
		Model:       c.editModel,
		AspectRatio: req.AspectRatio,
	}, nil
}

func (c *ImagenClient) predict(ctx context.Context, model string, body *imagenRequest) ([]byte, error) {
	r, err := authorized(ctx, c.client, c.tokens, NameImagen)
	if err != nil {
		return nil, err
	}

	var out imagenResponse
	resp, err := r.SetBody(body).SetResult(&out).Post(c.vertex.modelURL(model, "predict"))
	if err := checkResponse(NameImagen, resp, err); err != nil {
		return nil, err
	}
	if len(out.Predictions) == 0 || out.Predictions[0].BytesBase64Encoded == "" {
		return nil, malformed(NameImagen, "no image in response")
	}

	data, err := base64.StdEncoding.DecodeString(out.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, malformed(NameImagen, "image is not valid base64")
	}
	return data, nil
}

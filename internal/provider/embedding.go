package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
)

const defaultJinaURL = "https://api.jina.ai/v1/embeddings"

// EmbeddingClient generates text embeddings for the post index.
type EmbeddingClient struct {
	client     *resty.Client
	url        string
	model      string
	dimensions int
	usage      UsageRecorder
}

// EmbeddingConfig holds configuration for EmbeddingClient.
type EmbeddingConfig struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	Timeout    time.Duration
}

// NewEmbeddingClient creates a Jina embedding client.
func NewEmbeddingClient(cfg *EmbeddingConfig, usage UsageRecorder) *EmbeddingClient {
	client := newRestyClient(cfg.Timeout)
	client.SetAuthToken(cfg.APIKey)

	url := strings.TrimSuffix(cfg.BaseURL, "/")
	if url == "" {
		url = defaultJinaURL
	}
	return &EmbeddingClient{
		client:     client,
		url:        url,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		usage:      usage,
	}
}

// Model returns the model name being used.
func (c *EmbeddingClient) Model() string { return c.model }

// Jina API request/response structures
type jinaRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Embed generates a passage embedding for text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var out jinaResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(jinaRequest{
			Model:         c.model,
			Task:          "retrieval.passage",
			Dimensions:    c.dimensions,
			Input:         []string{text},
			EmbeddingType: "float",
		}).
		SetResult(&out).
		Post(c.url)
	if err := checkResponse(NameJina, resp, err); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, malformed(NameJina, "no embedding returned")
	}
	if c.dimensions > 0 && len(out.Data[0].Embedding) != c.dimensions {
		return nil, malformed(NameJina, fmt.Sprintf("embedding has %d dimensions, expected %d", len(out.Data[0].Embedding), c.dimensions))
	}

	recordUsage(ctx, c.usage, &domain.UsageLog{
		Provider:    NameJina,
		Model:       c.model,
		Operation:   "embed",
		InputTokens: out.Usage.TotalTokens,
	})
	return out.Data[0].Embedding, nil
}

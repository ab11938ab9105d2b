package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/prompts"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient is the research and text-generation provider.
type GeminiClient struct {
	client        *resty.Client
	baseURL       string
	apiKey        string
	researchModel string
	writerModel   string
	usage         UsageRecorder
}

// GeminiConfig holds configuration for GeminiClient.
type GeminiConfig struct {
	APIKey        string
	BaseURL       string
	ResearchModel string
	WriterModel   string
	Timeout       time.Duration
}

// NewGeminiClient creates a Gemini client.
// Parameters:
//   - cfg: API key, models, and optional base URL override.
//   - usage: optional usage recorder; nil disables usage logging.
//
// Returns:
//   - *GeminiClient: initialized client.
func NewGeminiClient(cfg *GeminiConfig, usage UsageRecorder) *GeminiClient {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{
		client:        newRestyClient(cfg.Timeout),
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		researchModel: cfg.ResearchModel,
		writerModel:   cfg.WriterModel,
		usage:         usage,
	}
}

// ResearchModel returns the grounded research model name.
func (c *GeminiClient) ResearchModel() string { return c.researchModel }

// WriterModel returns the writer model name.
func (c *GeminiClient) WriterModel() string { return c.writerModel }

// Gemini generateContent request/response structures
type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content           geminiContent `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (r *geminiResponse) citations() []domain.Citation {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []domain.Citation
	for _, chunk := range r.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		out = append(out, domain.Citation{Title: chunk.Web.Title, URL: chunk.Web.URI})
	}
	return out
}

func (c *GeminiClient) generate(ctx context.Context, model, operation string, req *geminiRequest) (*geminiResponse, error) {
	var out geminiResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model))
	if err := checkResponse(NameGemini, resp, err); err != nil {
		return nil, err
	}

	recordUsage(ctx, c.usage, &domain.UsageLog{
		Provider:     NameGemini,
		Model:        model,
		Operation:    operation,
		InputTokens:  out.UsageMetadata.PromptTokenCount,
		OutputTokens: out.UsageMetadata.CandidatesTokenCount,
	})
	return &out, nil
}

type researchPayload struct {
	Headline      string   `json:"headline"`
	Details       string   `json:"details"`
	Source        string   `json:"source"`
	SourceURL     string   `json:"sourceUrl"`
	Freshness     string   `json:"freshness"`
	Angle         string   `json:"angle"`
	RelatedTopics []string `json:"relatedTopics"`
}

func (p *researchPayload) toResult(topic string, citations []domain.Citation) (*domain.ResearchResult, error) {
	if strings.TrimSpace(p.Headline) == "" {
		return nil, malformed(NameGemini, "research response has no headline")
	}
	sourceURL := p.SourceURL
	if sourceURL == "" && len(citations) > 0 {
		sourceURL = citations[0].URL
	}
	if citations == nil {
		citations = []domain.Citation{}
	}
	return &domain.ResearchResult{
		Topic:         topic,
		Headline:      p.Headline,
		Details:       p.Details,
		Source:        p.Source,
		SourceURL:     sourceURL,
		Freshness:     domain.Freshness(p.Freshness).Normalize(),
		Angle:         p.Angle,
		RelatedTopics: p.RelatedTopics,
		Citations:     citations,
		Grounded:      len(citations) > 0,
	}, nil
}

// Research asks the grounded model for one finding about topic.
func (c *GeminiClient) Research(ctx context.Context, topic string) (*domain.ResearchResult, error) {
	req := &geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompts.Research(topic)}}}},
		Tools:            []geminiTool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.4, MaxOutputTokens: 1500},
	}
	resp, err := c.generate(ctx, c.researchModel, "research", req)
	if err != nil {
		return nil, err
	}

	var payload researchPayload
	if err := ExtractJSONObject(NameGemini, resp.text(), &payload); err != nil {
		return nil, err
	}
	return payload.toResult(topic, resp.citations())
}

// ResearchFallback is the single-shot, ungrounded research call.
func (c *GeminiClient) ResearchFallback(ctx context.Context, topic string) (*domain.ResearchResult, error) {
	req := &geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompts.ResearchFallback(topic)}}}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.7, MaxOutputTokens: 1000},
	}
	resp, err := c.generate(ctx, c.researchModel, "research_fallback", req)
	if err != nil {
		return nil, err
	}

	var payload researchPayload
	if err := ExtractJSONObject(NameGemini, resp.text(), &payload); err != nil {
		return nil, err
	}
	return payload.toResult(topic, nil)
}

type writerPayload struct {
	Description     string             `json:"description"`
	Hashtags        []string           `json:"hashtags"`
	Categories      []string           `json:"categories"`
	EngagementHook  string             `json:"engagementHook"`
	MediaSpec       json.RawMessage    `json:"mediaSpec"`
	VoiceoverScript string             `json:"voiceoverScript"`
	ContentMeta     domain.ContentMeta `json:"contentMeta"`
}

// Write drafts a post in the persona's voice. A media directive that is
// missing or unreadable comes back as a nil MediaSpec; an unreadable
// response as a whole is a malformed_response error.
func (c *GeminiClient) Write(ctx context.Context, persona string, research *domain.ResearchResult) (*domain.ContentDraft, error) {
	req := &geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: persona}}},
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompts.Writer(prompts.WriterInput{
			Headline: research.Headline,
			Details:  research.Details,
			Source:   research.Source,
			Angle:    research.Angle,
		})}}}},
		GenerationConfig: geminiGenerationConfig{Temperature: 0.8, MaxOutputTokens: 2000},
	}
	resp, err := c.generate(ctx, c.writerModel, "write", req)
	if err != nil {
		return nil, err
	}

	var payload writerPayload
	if err := ExtractJSONObject(NameGemini, resp.text(), &payload); err != nil {
		return nil, err
	}
	payload.ContentMeta.Confidence = clampUnit(payload.ContentMeta.Confidence)

	return &domain.ContentDraft{
		Description:     strings.TrimSpace(payload.Description),
		Hashtags:        payload.Hashtags,
		Categories:      payload.Categories,
		EngagementHook:  payload.EngagementHook,
		MediaSpec:       parseMediaSpec(payload.MediaSpec),
		VoiceoverScript: strings.TrimSpace(payload.VoiceoverScript),
		Meta:            payload.ContentMeta,
	}, nil
}

// clampUnit bounds a model-reported score to [0, 1].
func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func parseMediaSpec(raw json.RawMessage) *domain.MediaSpec {
	if len(raw) == 0 {
		return nil
	}
	var spec domain.MediaSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil
	}
	switch strings.ToLower(string(spec.Kind)) {
	case "video":
		spec.Kind = domain.MediaKindVideo
	case "image", "photo":
		spec.Kind = domain.MediaKindImage
	}
	if !spec.Valid() {
		return nil
	}
	return &spec
}

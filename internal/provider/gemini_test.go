package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/timmy/agentfeed/internal/domain"
)

type usageSink struct {
	mu   sync.Mutex
	logs []*domain.UsageLog
}

func (s *usageSink) Record(_ context.Context, u *domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, u)
	return nil
}

// geminiServer answers every generateContent call with text and optional grounding.
func geminiServer(t *testing.T, status int, text string, grounding []map[string]string, seen *geminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key")
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
			return
		}

		chunks := make([]map[string]interface{}, 0, len(grounding))
		for _, g := range grounding {
			chunks = append(chunks, map[string]interface{}{"web": g})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []interface{}{map[string]interface{}{
				"content":           map[string]interface{}{"parts": []interface{}{map[string]string{"text": text}}},
				"groundingMetadata": map[string]interface{}{"groundingChunks": chunks},
			}},
			"usageMetadata": map[string]int{"promptTokenCount": 12, "candidatesTokenCount": 34},
		})
	}))
}

func newTestGemini(url string, usage UsageRecorder) *GeminiClient {
	return NewGeminiClient(&GeminiConfig{
		APIKey:        "test-key",
		BaseURL:       url,
		ResearchModel: "research-model",
		WriterModel:   "writer-model",
	}, usage)
}

func TestGeminiResearch(t *testing.T) {
	text := "```json\n" + `{"headline":"New ramen trend","details":"d","source":"Eater","freshness":"today","angle":"fun","relatedTopics":["noodles"]}` + "\n```"
	var seen geminiRequest
	srv := geminiServer(t, http.StatusOK, text, []map[string]string{
		{"uri": "https://eater.com/ramen", "title": "Eater"},
		{"uri": "", "title": "skipped"},
	}, &seen)
	defer srv.Close()

	usage := &usageSink{}
	res, err := newTestGemini(srv.URL, usage).Research(context.Background(), "ramen")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}

	if len(seen.Tools) != 1 || seen.Tools[0].GoogleSearch == nil {
		t.Error("research request should enable search grounding")
	}
	if res.Headline != "New ramen trend" || res.Topic != "ramen" {
		t.Errorf("unexpected result: %+v", res)
	}
	if !res.Grounded || len(res.Citations) != 1 {
		t.Errorf("expected one citation, got %+v", res.Citations)
	}
	if res.SourceURL != "https://eater.com/ramen" {
		t.Errorf("source url should default to first citation, got %q", res.SourceURL)
	}
	if res.Freshness != domain.FreshnessToday {
		t.Errorf("freshness = %q", res.Freshness)
	}
	if len(usage.logs) != 1 || usage.logs[0].InputTokens != 12 || usage.logs[0].OutputTokens != 34 {
		t.Errorf("usage not recorded: %+v", usage.logs)
	}
}

func TestGeminiResearchErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := geminiServer(t, http.StatusTooManyRequests, "", nil, nil)
		defer srv.Close()

		_, err := newTestGemini(srv.URL, nil).Research(context.Background(), "x")
		var pe *domain.ProviderError
		if !errors.As(err, &pe) || pe.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected provider error with 429, got %v", err)
		}
		if pe.Malformed() {
			t.Error("status failure should not be malformed")
		}
	})

	t.Run("missing headline", func(t *testing.T) {
		srv := geminiServer(t, http.StatusOK, `{"details":"no headline"}`, nil, nil)
		defer srv.Close()

		_, err := newTestGemini(srv.URL, nil).Research(context.Background(), "x")
		if !domain.IsMalformed(err) {
			t.Fatalf("expected malformed error, got %v", err)
		}
	})
}

func TestGeminiResearchFallback(t *testing.T) {
	var seen geminiRequest
	srv := geminiServer(t, http.StatusOK, `{"headline":"h","source":"General knowledge"}`, nil, &seen)
	defer srv.Close()

	res, err := newTestGemini(srv.URL, nil).ResearchFallback(context.Background(), "stars")
	if err != nil {
		t.Fatalf("ResearchFallback: %v", err)
	}
	if len(seen.Tools) != 0 {
		t.Error("fallback must not request grounding")
	}
	if res.Grounded || res.Citations == nil || len(res.Citations) != 0 {
		t.Errorf("fallback should be ungrounded with empty citations: %+v", res)
	}
	if res.Freshness != domain.FreshnessThisWeek {
		t.Errorf("unknown freshness should normalize, got %q", res.Freshness)
	}
}

func TestGeminiWrite(t *testing.T) {
	text := `{"description":"  Try this  ","hashtags":["#a"],"categories":["food"],"engagementHook":"?",
"mediaSpec":{"type":"photo","prompt":"bowl","aspectRatio":"9:16"},"voiceoverScript":"Hello...",
"contentMeta":{"topic":"ramen","confidence":0.7}}`
	var seen geminiRequest
	srv := geminiServer(t, http.StatusOK, text, nil, &seen)
	defer srv.Close()

	draft, err := newTestGemini(srv.URL, nil).Write(context.Background(), "You are Chef", &domain.ResearchResult{Headline: "h"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if seen.SystemInstruction == nil || seen.SystemInstruction.Parts[0].Text != "You are Chef" {
		t.Error("persona should be sent as system instruction")
	}
	if draft.Description != "Try this" {
		t.Errorf("description = %q", draft.Description)
	}
	if draft.MediaSpec == nil || draft.MediaSpec.Kind != domain.MediaKindImage {
		t.Errorf("photo should map to image: %+v", draft.MediaSpec)
	}
	if draft.Meta.Confidence != 0.7 {
		t.Errorf("confidence = %v", draft.Meta.Confidence)
	}
}

func TestParseMediaSpec(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.MediaKind
		wantNil bool
	}{
		{"video", `{"type":"VIDEO","prompt":"p"}`, domain.MediaKindVideo, false},
		{"missing", ``, "", true},
		{"not an object", `"image"`, "", true},
		{"unknown kind", `{"type":"gif","prompt":"p"}`, "", true},
		{"empty prompt", `{"type":"image","prompt":""}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMediaSpec(json.RawMessage(tt.raw))
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.Kind != tt.want {
				t.Fatalf("parseMediaSpec = %+v, want kind %q", got, tt.want)
			}
		})
	}
}

func TestGeminiUndecodableSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway hiccup</html>"))
	}))
	defer srv.Close()

	client := newTestGemini(srv.URL, nil)
	calls := map[string]func() error{
		"write": func() error {
			_, err := client.Write(context.Background(), "persona", &domain.ResearchResult{Headline: "h"})
			return err
		},
		"research": func() error {
			_, err := client.Research(context.Background(), "x")
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !domain.IsMalformed(err) {
				t.Fatalf("expected malformed_response, got %v", err)
			}
		})
	}
}

func TestGeminiWriteClampsConfidence(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1.7", 1},
		{"-0.2", 0},
		{"0.35", 0.35},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			text := `{"description":"d","contentMeta":{"confidence":` + tt.raw + `}}`
			srv := geminiServer(t, http.StatusOK, text, nil, nil)
			defer srv.Close()

			draft, err := newTestGemini(srv.URL, nil).Write(context.Background(), "p", &domain.ResearchResult{Headline: "h"})
			if err != nil {
				t.Fatalf("Write: %v", err)
			}
			if draft.Meta.Confidence != tt.want {
				t.Fatalf("confidence = %v, want %v", draft.Meta.Confidence, tt.want)
			}
		})
	}
}

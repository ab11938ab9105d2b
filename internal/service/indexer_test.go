package service

import (
	"context"
	"strings"
	"testing"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/repository"
)

type fakeEmbedder struct {
	texts []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	payloads []*repository.PostPayload
}

func (f *fakeIndex) Upsert(_ context.Context, _ []float32, payload *repository.PostPayload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestPostIndexer(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	post := &domain.PublishRecord{
		ID:          "p1",
		Author:      "ai_chef",
		Description: "Tonight's ramen secret",
		Hashtags:    domain.StringArray{"#ramen"},
		Categories:  domain.StringArray{"food", "feed"},
		MediaType:   "image",
		CreatedAt:   fixedNow,
		ContentMeta: &domain.ContentProvenance{Topic: "ramen"},
	}

	if err := NewPostIndexer(embedder, index).Index(context.Background(), post); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if !strings.Contains(embedder.texts[0], "Topic: ramen") {
		t.Fatalf("embedded text = %q", embedder.texts[0])
	}
	if len(index.payloads) != 1 || index.payloads[0].PostID != "p1" || index.payloads[0].CreatedAt != fixedNow.Unix() {
		t.Fatalf("payloads = %+v", index.payloads)
	}

	embedder.err = errBoom
	if err := NewPostIndexer(embedder, index).Index(context.Background(), post); err == nil {
		t.Fatal("expected embed error")
	}

	var nilIndexer *PostIndexer
	if err := nilIndexer.Index(context.Background(), post); err != nil {
		t.Fatalf("nil indexer: %v", err)
	}
}

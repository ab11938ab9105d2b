package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
)

func TestRegenerate(t *testing.T) {
	posts := newMemPosts()
	posts.posts["p1"] = &domain.PublishRecord{
		ID:        "p1",
		MediaType: "image",
		MediaURL:  "https://cdn/old.png",
		MediaGeneration: &domain.MediaGeneration{
			Prompt:      "a bowl of ramen",
			AspectRatio: "9:16",
			Style:       "photorealistic",
			GeneratedAt: fixedNow.Add(-time.Hour),
		},
	}
	images := &fakeImages{}
	store := newMemStorage()

	r := NewMediaRegenerator(posts, images, store)
	r.now = func() time.Time { return fixedNow }

	url, err := r.Regenerate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if url != testPublicBase+"/ai-content/p1.png" {
		t.Fatalf("url = %q", url)
	}
	if images.calls[0].Prompt != "a bowl of ramen" || images.calls[0].AspectRatio != "9:16" {
		t.Fatalf("request = %+v", images.calls[0])
	}

	got := posts.posts["p1"]
	if got.MediaURL != url {
		t.Fatalf("media url = %q", got.MediaURL)
	}
	if got.MediaGeneration.RegeneratedAt == nil || !got.MediaGeneration.RegeneratedAt.Equal(fixedNow) {
		t.Fatalf("regeneratedAt = %v", got.MediaGeneration.RegeneratedAt)
	}
	if !got.MediaGeneration.GeneratedAt.Equal(fixedNow.Add(-time.Hour)) {
		t.Fatal("generatedAt should be preserved")
	}
}

func TestRegenerateRejects(t *testing.T) {
	posts := newMemPosts()
	posts.posts["video"] = &domain.PublishRecord{ID: "video", MediaType: "video", MediaGeneration: &domain.MediaGeneration{Prompt: "x"}}
	posts.posts["bare"] = &domain.PublishRecord{ID: "bare", MediaType: "image"}

	r := NewMediaRegenerator(posts, &fakeImages{}, newMemStorage())
	tests := []struct {
		id      string
		wantErr func(error) bool
	}{
		{"missing", func(err error) bool { return errors.Is(err, domain.ErrNotFound) }},
		{"video", func(err error) bool { var v *domain.ValidationError; return errors.As(err, &v) }},
		{"bare", func(err error) bool { var v *domain.ValidationError; return errors.As(err, &v) }},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if _, err := r.Regenerate(context.Background(), tt.id); !tt.wantErr(err) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

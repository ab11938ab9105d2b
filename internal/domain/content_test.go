package domain

import (
	"reflect"
	"testing"
)

func TestEnsureCategories(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		primary string
		want    []string
	}{
		{name: "empty", in: nil, primary: "food", want: []string{"food", "feed"}},
		{name: "missing primary", in: []string{"health"}, primary: "food", want: []string{"food", "health", "feed"}},
		{name: "missing feed", in: []string{"food"}, primary: "food", want: []string{"food", "feed"}},
		{name: "duplicates", in: []string{"feed", "food", "food", "travel", "feed"}, primary: "food", want: []string{"food", "travel", "feed"}},
		{name: "primary not first", in: []string{"health", "food", "feed"}, primary: "food", want: []string{"food", "health", "feed"}},
		{name: "blank entries", in: []string{"", "news"}, primary: "news", want: []string{"news", "feed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureCategories(tt.in, tt.primary)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("EnsureCategories(%v, %q) = %v, want %v", tt.in, tt.primary, got, tt.want)
			}
		})
	}
}

func TestDefaultMediaSpec(t *testing.T) {
	spec := DefaultMediaSpec("travel")
	if !spec.Valid() {
		t.Fatalf("default spec should be valid: %+v", spec)
	}
	if spec.Kind != MediaKindImage {
		t.Fatalf("kind = %q, want image", spec.Kind)
	}
	if spec.Prompt != "Professional travel content, high quality, 4K, trending" {
		t.Fatalf("unexpected prompt %q", spec.Prompt)
	}
	if spec.AspectRatio != "9:16" {
		t.Fatalf("aspect ratio = %q", spec.AspectRatio)
	}
}

func TestMediaSpecValid(t *testing.T) {
	tests := []struct {
		name string
		spec *MediaSpec
		want bool
	}{
		{name: "nil", spec: nil, want: false},
		{name: "no prompt", spec: &MediaSpec{Kind: MediaKindImage}, want: false},
		{name: "unknown kind", spec: &MediaSpec{Kind: "gif", Prompt: "x"}, want: false},
		{name: "video", spec: &MediaSpec{Kind: MediaKindVideo, Prompt: "x"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Valid(); got != tt.want {
				t.Fatalf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

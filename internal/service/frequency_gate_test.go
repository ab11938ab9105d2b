package service

import (
	"context"
	"testing"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
)

func TestFrequencyGate(t *testing.T) {
	tests := []struct {
		name     string
		lastPost time.Duration // age of the latest post; 0 means none
		want     bool
	}{
		{"never posted", 0, true},
		{"posted 3.5h ago", 3*time.Hour + 30*time.Minute, false},
		{"posted exactly 4h ago", 4 * time.Hour, true},
		{"posted 4.1h ago", 4*time.Hour + 6*time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := newMemPosts()
			creator := testCreator("chef")
			if tt.lastPost > 0 {
				posts.posts["old"] = &domain.PublishRecord{ID: "old", Author: creator.AuthorID, CreatedAt: fixedNow.Add(-tt.lastPost)}
			}
			gate := NewFrequencyGate(posts)
			gate.now = func() time.Time { return fixedNow }

			got, err := gate.ShouldRun(context.Background(), creator)
			if err != nil {
				t.Fatalf("ShouldRun: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ShouldRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrequencyGateLookupError(t *testing.T) {
	posts := newMemPosts()
	posts.latestErr = errBoom

	if _, err := NewFrequencyGate(posts).ShouldRun(context.Background(), testCreator("chef")); err == nil {
		t.Fatal("expected lookup error")
	}
}

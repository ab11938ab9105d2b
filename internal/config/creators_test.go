package config

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	fallback := 4 * time.Hour
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"every 4 hours", 4 * time.Hour},
		{"every 2 hours", 2 * time.Hour},
		{"every 1 hour", time.Hour},
		{"Every 6 Hours", 6 * time.Hour},
		{"every 30 minutes", 30 * time.Minute},
		{"every 0 hours", fallback},
		{"twice a day", fallback},
		{"", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSchedule(tt.in, fallback); got != tt.want {
				t.Fatalf("ParseSchedule(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCreatorConfigProfile(t *testing.T) {
	base := CreatorConfig{
		Key:            "chef",
		Name:           "Chef",
		ResearchTopics: []string{"recipes"},
		Categories:     []string{"food"},
		Schedule:       "every 3 hours",
	}

	t.Run("valid", func(t *testing.T) {
		p, err := base.Profile(4 * time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.AuthorID != "ai_chef" {
			t.Fatalf("AuthorID = %q", p.AuthorID)
		}
		if p.MinInterval != 3*time.Hour {
			t.Fatalf("MinInterval = %v", p.MinInterval)
		}
		if len(p.Categories) != 2 || p.Categories[0] != "food" || p.Categories[1] != "feed" {
			t.Fatalf("Categories = %v", p.Categories)
		}
	})

	t.Run("explicit interval wins", func(t *testing.T) {
		c := base
		c.MinInterval = 90 * time.Minute
		p, err := c.Profile(4 * time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.MinInterval != 90*time.Minute {
			t.Fatalf("MinInterval = %v", p.MinInterval)
		}
	})

	invalid := []struct {
		name   string
		mutate func(c *CreatorConfig)
	}{
		{"missing key", func(c *CreatorConfig) { c.Key = "" }},
		{"missing name", func(c *CreatorConfig) { c.Name = "" }},
		{"no topics", func(c *CreatorConfig) { c.ResearchTopics = nil }},
		{"no categories", func(c *CreatorConfig) { c.Categories = nil }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if _, err := c.Profile(time.Hour); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDefaultRoster(t *testing.T) {
	creators, err := defaultCreators()
	if err != nil {
		t.Fatalf("defaultCreators: %v", err)
	}
	cfg := &Config{Creators: creators, Pipeline: PipelineConfig{DefaultMinInterval: 4 * time.Hour}}
	roster, err := cfg.Roster()
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	if len(roster) != 6 {
		t.Fatalf("roster size = %d, want 6", len(roster))
	}

	intervals := map[string]time.Duration{}
	for _, p := range roster {
		intervals[p.Key] = p.MinInterval
		if p.Voice.Name == "" {
			t.Fatalf("creator %s has no voice", p.Key)
		}
	}
	if intervals["news_pulse"] != 2*time.Hour {
		t.Fatalf("news_pulse interval = %v", intervals["news_pulse"])
	}
	if intervals["style_mira"] != 6*time.Hour {
		t.Fatalf("style_mira interval = %v", intervals["style_mira"])
	}
	if roster[0].Key != "chef_aiden" {
		t.Fatalf("roster order changed: first = %s", roster[0].Key)
	}
}

func TestRosterRejectsDuplicates(t *testing.T) {
	c := CreatorConfig{Key: "a", Name: "A", ResearchTopics: []string{"t"}, Categories: []string{"x"}}
	cfg := &Config{Creators: []CreatorConfig{c, c}}
	if _, err := cfg.Roster(); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

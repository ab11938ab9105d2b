package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/timmy/agentfeed/internal/domain"
)

//go:embed creators.yaml
var defaultCreatorsYAML []byte

// CreatorConfig is the configuration form of a creator persona.
// MinInterval takes precedence over Schedule when both are set.
type CreatorConfig struct {
	Key            string           `mapstructure:"key"`
	AuthorID       string           `mapstructure:"author_id"`
	Name           string           `mapstructure:"name"`
	Avatar         string           `mapstructure:"avatar"`
	Personality    string           `mapstructure:"personality"`
	ResearchTopics []string         `mapstructure:"research_topics"`
	Categories     []string         `mapstructure:"categories"`
	Schedule       string           `mapstructure:"schedule"`
	MinInterval    time.Duration    `mapstructure:"min_interval"`
	Voice          domain.VoiceSpec `mapstructure:"voice"`
}

var scheduleRe = regexp.MustCompile(`(?i)every\s+(\d+)\s+(hour|minute)s?`)

// ParseSchedule converts "every N hours" / "every N minutes" into a duration.
// Parameters:
//   - schedule: human-readable schedule text.
//   - fallback: value returned when schedule cannot be parsed.
//
// Returns:
//   - time.Duration: parsed interval or fallback.
func ParseSchedule(schedule string, fallback time.Duration) time.Duration {
	m := scheduleRe.FindStringSubmatch(schedule)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return fallback
	}
	if strings.EqualFold(m[2], "minute") {
		return time.Duration(n) * time.Minute
	}
	return time.Duration(n) * time.Hour
}

// Profile validates the entry and converts it to an immutable profile.
func (c *CreatorConfig) Profile(defaultInterval time.Duration) (domain.CreatorProfile, error) {
	if c.Key == "" {
		return domain.CreatorProfile{}, fmt.Errorf("creator: key is required")
	}
	if c.Name == "" {
		return domain.CreatorProfile{}, fmt.Errorf("creator %q: name is required", c.Key)
	}
	if len(c.ResearchTopics) == 0 {
		return domain.CreatorProfile{}, fmt.Errorf("creator %q: at least one research topic is required", c.Key)
	}
	if len(c.Categories) == 0 {
		return domain.CreatorProfile{}, fmt.Errorf("creator %q: at least one category is required", c.Key)
	}

	interval := c.MinInterval
	if interval <= 0 {
		interval = ParseSchedule(c.Schedule, defaultInterval)
	}

	authorID := c.AuthorID
	if authorID == "" {
		authorID = "ai_" + c.Key
	}

	return domain.CreatorProfile{
		Key:            c.Key,
		AuthorID:       authorID,
		Name:           c.Name,
		Avatar:         c.Avatar,
		Personality:    strings.TrimSpace(c.Personality),
		ResearchTopics: append([]string(nil), c.ResearchTopics...),
		Categories:     domain.EnsureCategories(c.Categories, c.Categories[0]),
		MinInterval:    interval,
		Voice:          c.Voice,
	}, nil
}

// Roster returns the configured creators, in configuration order.
func (c *Config) Roster() ([]domain.CreatorProfile, error) {
	fallback := c.Pipeline.DefaultMinInterval
	if fallback <= 0 {
		fallback = 4 * time.Hour
	}

	roster := make([]domain.CreatorProfile, 0, len(c.Creators))
	seen := make(map[string]struct{}, len(c.Creators))
	for i := range c.Creators {
		profile, err := c.Creators[i].Profile(fallback)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[profile.Key]; dup {
			return nil, fmt.Errorf("creator %q: duplicate key", profile.Key)
		}
		seen[profile.Key] = struct{}{}
		roster = append(roster, profile)
	}
	return roster, nil
}

func defaultCreators() ([]CreatorConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultCreatorsYAML)); err != nil {
		return nil, fmt.Errorf("failed to read default creators: %w", err)
	}
	var creators []CreatorConfig
	if err := v.UnmarshalKey("creators", &creators); err != nil {
		return nil, fmt.Errorf("failed to decode default creators: %w", err)
	}
	return creators, nil
}

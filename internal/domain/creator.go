package domain

import "time"

// FeedCategory is the universal discovery category every post is listed under.
const FeedCategory = "feed"

// VoiceSpec selects the speech-synthesis voice for a creator.
type VoiceSpec struct {
	LanguageCode string `json:"languageCode" mapstructure:"language_code"`
	Name         string `json:"name" mapstructure:"name"`
	SSMLGender   string `json:"ssmlGender" mapstructure:"ssml_gender"`
}

// CreatorProfile is the immutable configuration of one AI creator persona.
// Profiles are built once from configuration and looked up by Key.
type CreatorProfile struct {
	Key            string
	AuthorID       string
	Name           string
	Avatar         string
	Personality    string
	ResearchTopics []string
	Categories     []string
	MinInterval    time.Duration
	Voice          VoiceSpec
}

// PrimaryCategory returns the first configured category, or FeedCategory when
// the profile has none.
func (c *CreatorProfile) PrimaryCategory() string {
	for _, cat := range c.Categories {
		if cat != "" && cat != FeedCategory {
			return cat
		}
	}
	return FeedCategory
}

package domain

import "fmt"

// Freshness tags how recent a research finding is.
type Freshness string

const (
	FreshnessToday     Freshness = "today"
	FreshnessThisWeek  Freshness = "this_week"
	FreshnessThisMonth Freshness = "this_month"
)

// Normalize maps unknown freshness values onto FreshnessThisWeek.
func (f Freshness) Normalize() Freshness {
	switch f {
	case FreshnessToday, FreshnessThisWeek, FreshnessThisMonth:
		return f
	default:
		return FreshnessThisWeek
	}
}

// Citation is a grounding source returned alongside a research answer.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchResult is the output of the research stage.
type ResearchResult struct {
	Topic         string     `json:"topic"`
	Headline      string     `json:"headline"`
	Details       string     `json:"details"`
	Source        string     `json:"source"`
	SourceURL     string     `json:"sourceUrl"`
	Freshness     Freshness  `json:"freshness"`
	Angle         string     `json:"angle"`
	RelatedTopics []string   `json:"relatedTopics,omitempty"`
	Citations     []Citation `json:"groundedSources"`
	Grounded      bool       `json:"-"`
}

// MediaKind is the kind of media a MediaSpec asks for.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaSpec is the generation directive produced by the writer.
type MediaSpec struct {
	Kind           MediaKind `json:"type"`
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negativePrompt"`
	Style          string    `json:"style"`
	AspectRatio    string    `json:"aspectRatio"`
	Mood           string    `json:"mood"`
}

// Valid reports whether the spec names a known kind and carries a prompt.
func (m *MediaSpec) Valid() bool {
	if m == nil || m.Prompt == "" {
		return false
	}
	return m.Kind == MediaKindImage || m.Kind == MediaKindVideo
}

// DefaultMediaSpec returns the directive used when the writer omits one.
// Parameters:
//   - primaryCategory: creator's primary category, woven into the prompt.
//
// Returns:
//   - *MediaSpec: a fresh image directive.
func DefaultMediaSpec(primaryCategory string) *MediaSpec {
	return &MediaSpec{
		Kind:           MediaKindImage,
		Prompt:         fmt.Sprintf("Professional %s content, high quality, 4K, trending", primaryCategory),
		NegativePrompt: "blurry, text, watermark, low quality",
		Style:          "photorealistic",
		AspectRatio:    "9:16",
		Mood:           "vibrant",
	}
}

// ContentMeta is the writer's provenance block.
type ContentMeta struct {
	Topic       string  `json:"topic"`
	Source      string  `json:"source"`
	FactChecked bool    `json:"factChecked"`
	Confidence  float64 `json:"confidence"`
}

// ContentDraft is the output of the write stage.
type ContentDraft struct {
	Description     string      `json:"description"`
	Hashtags        []string    `json:"hashtags"`
	Categories      []string    `json:"categories"`
	EngagementHook  string      `json:"engagementHook"`
	MediaSpec       *MediaSpec  `json:"mediaSpec"`
	VoiceoverScript string      `json:"voiceoverScript"`
	Meta            ContentMeta `json:"contentMeta"`
}

// EnsureCategories puts primary first, appends FeedCategory, and drops
// duplicates and empty entries while keeping the writer's order otherwise.
func EnsureCategories(categories []string, primary string) []string {
	out := make([]string, 0, len(categories)+2)
	seen := make(map[string]struct{}, len(categories)+2)
	add := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	add(primary)
	for _, c := range categories {
		if c != FeedCategory {
			add(c)
		}
	}
	add(FeedCategory)
	return out
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// PostStatus represents the lifecycle status of a post record.
type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
//
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan StringArray")
	}
	return json.Unmarshal(raw, a)
}

// MediaGeneration records how a post's media was produced, verbatim, so it
// can be regenerated later.
type MediaGeneration struct {
	Model          string     `json:"model"`
	Provider       string     `json:"provider"`
	Prompt         string     `json:"prompt"`
	NegativePrompt string     `json:"negativePrompt"`
	Style          string     `json:"style"`
	AspectRatio    string     `json:"aspectRatio"`
	Mood           string     `json:"mood"`
	GeneratedAt    time.Time  `json:"generatedAt"`
	RegeneratedAt  *time.Time `json:"regeneratedAt,omitempty"`
}

// ContentProvenance is the research provenance block of a post.
type ContentProvenance struct {
	ResearchHeadline  string     `json:"researchHeadline"`
	ResearchSource    string     `json:"researchSource"`
	ResearchSourceURL string     `json:"researchSourceUrl"`
	GroundedSources   []Citation `json:"groundedSources"`
	FactChecked       bool       `json:"factChecked"`
	Confidence        float64    `json:"confidence"`
	Topic             string     `json:"topic"`
}

// PublishRecord is the persisted, user-facing post.
// AI posts are immutable after creation except for engagement recomputation
// and media regeneration.
type PublishRecord struct {
	ID           string `gorm:"type:text;primaryKey" json:"id"`
	Author       string `gorm:"type:text;not null;index:idx_posts_author_created,priority:1" json:"author"`
	AuthorName   string `gorm:"type:text" json:"authorName"`
	AuthorAvatar string `gorm:"type:text" json:"authorAvatar"`

	Description    string      `gorm:"type:text" json:"description"`
	Hashtags       StringArray `gorm:"type:text" json:"hashtags"`
	Categories     StringArray `gorm:"type:text" json:"categories"`
	EngagementHook string      `gorm:"type:text" json:"engagementHook"`

	MediaURL          string `gorm:"type:text" json:"mediaUrl"`
	MediaType         string `gorm:"type:text" json:"mediaType"`
	MediaURLPortrait  string `gorm:"type:text" json:"mediaUrlPortrait"`
	MediaURLLandscape string `gorm:"type:text" json:"mediaUrlLandscape"`
	AudioURL          string `gorm:"type:text" json:"audioUrl"`
	VoiceoverScript   string `gorm:"type:text" json:"voiceoverScript"`
	HasVoiceover      bool   `json:"hasVoiceover"`

	VideoPrompt   string `gorm:"type:text" json:"videoPrompt,omitempty"`
	VideoStyle    string `gorm:"type:text" json:"videoStyle,omitempty"`
	VideoDuration int    `json:"videoDuration,omitempty"`

	MediaGeneration *MediaGeneration   `gorm:"serializer:json;type:text" json:"mediaGeneration,omitempty"`
	ContentMeta     *ContentProvenance `gorm:"serializer:json;type:text" json:"contentMeta,omitempty"`

	Likes           int64   `gorm:"default:0" json:"likes"`
	Comments        int64   `gorm:"default:0" json:"comments"`
	Shares          int64   `gorm:"default:0" json:"shares"`
	Saves           int64   `gorm:"default:0" json:"saves"`
	Views           int64   `gorm:"default:0" json:"views"`
	EngagementScore float64 `gorm:"default:0;index:idx_posts_score" json:"engagementScore"`

	IsAIGenerated bool       `gorm:"index:idx_posts_ai" json:"isAIGenerated"`
	Pipeline      string     `gorm:"type:text" json:"pipeline,omitempty"`
	ResearchModel string     `gorm:"type:text" json:"researchModel,omitempty"`
	WriterModel   string     `gorm:"type:text" json:"writerModel,omitempty"`
	ImageModel    string     `gorm:"type:text" json:"imageModel,omitempty"`
	VoiceModel    string     `gorm:"type:text" json:"voiceModel,omitempty"`
	Status        PostStatus `gorm:"type:text;index:idx_posts_status" json:"status"`

	CreatedAt time.Time `gorm:"index:idx_posts_author_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for PublishRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (PublishRecord) TableName() string {
	return "posts"
}

// HasDualRatio reports whether both ratio variants are already attached.
func (p *PublishRecord) HasDualRatio() bool {
	return p.MediaURLPortrait != "" && p.MediaURLLandscape != ""
}

// TrendingList is the curated top posts of one feed category.
type TrendingList struct {
	Category  string      `gorm:"type:text;primaryKey" json:"category"`
	PostIDs   StringArray `gorm:"type:text" json:"postIds"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TableName returns the database table name for TrendingList.
func (TrendingList) TableName() string {
	return "trending"
}

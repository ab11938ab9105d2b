package domain

import "time"

// UsageLog records token usage of one provider completion call.
type UsageLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider     string    `gorm:"type:text;not null;index:idx_ai_usage_provider" json:"provider"`
	Model        string    `gorm:"type:text" json:"model"`
	Operation    string    `gorm:"type:text" json:"operation"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName returns the database table name for UsageLog.
func (UsageLog) TableName() string {
	return "ai_usage"
}

// CreatorContent is the per-creator log of generated posts.
type CreatorContent struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Creator      string    `gorm:"type:text;not null;index:idx_creator_content_creator" json:"creator"`
	PostID       string    `gorm:"type:text;not null" json:"postId"`
	Topic        string    `gorm:"type:text" json:"topic"`
	Headline     string    `gorm:"type:text" json:"headline"`
	MediaType    string    `gorm:"type:text" json:"mediaType"`
	HasVoiceover bool      `json:"hasVoiceover"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName returns the database table name for CreatorContent.
func (CreatorContent) TableName() string {
	return "creator_content"
}

package service

import (
	"context"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/provider"
)

// Researcher finds something worth posting about.
type Researcher interface {
	Research(ctx context.Context, topic string) (*domain.ResearchResult, error)
	ResearchFallback(ctx context.Context, topic string) (*domain.ResearchResult, error)
}

// Writer drafts a post in a creator's voice.
type Writer interface {
	Write(ctx context.Context, persona string, research *domain.ResearchResult) (*domain.ContentDraft, error)
}

// ImageGenerator renders one image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req provider.ImageRequest) (*domain.MediaArtifact, error)
}

// ImageEditor transforms an existing image.
type ImageEditor interface {
	EditImage(ctx context.Context, req provider.EditRequest) (*domain.MediaArtifact, error)
}

// VideoGenerator runs long-running video jobs.
type VideoGenerator interface {
	SubmitVideo(ctx context.Context, req provider.VideoRequest) (string, error)
	PollVideo(ctx context.Context, handle string) (*provider.VideoStatus, error)
}

// VoiceSynthesizer renders a narration script.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, script string, voice domain.VoiceSpec) (*domain.MediaArtifact, error)
}

// PostSink persists publish records.
type PostSink interface {
	Put(ctx context.Context, post *domain.PublishRecord) error
}

// LatestPostFinder looks up an author's newest post.
type LatestPostFinder interface {
	LatestByAuthor(ctx context.Context, author string) (*domain.PublishRecord, error)
}

// PostStore is the full post persistence surface used outside the pipeline.
type PostStore interface {
	PostSink
	LatestPostFinder
	GetByID(ctx context.Context, id string) (*domain.PublishRecord, error)
	CountByAuthor(ctx context.Context, author string) (int64, error)
	UpdateMedia(ctx context.Context, id, mediaURL string, gen *domain.MediaGeneration) error
	UpdateDualRatio(ctx context.Context, id, portraitURL, landscapeURL string) error
	ListPublishedSince(ctx context.Context, since time.Time, limit int) ([]domain.PublishRecord, error)
	UpdateEngagementScore(ctx context.Context, id string, score float64) error
}

// AuditSink appends audit entries. Failures never fail a run.
type AuditSink interface {
	Append(ctx context.Context, entry *domain.AgentLog) error
}

// ContentLog appends per-creator content entries.
type ContentLog interface {
	Append(ctx context.Context, entry *domain.CreatorContent) error
}

package service

import (
	"strings"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
)

// MediaProviderName is recorded in mediaGeneration for generated media.
const MediaProviderName = "vertex-ai"

// ModelSet names the models a pipeline run is tagged with.
type ModelSet struct {
	Pipeline string
	Research string
	Writer   string
	Image    string
	Video    string
	Voice    string
}

// RecordBuilder assembles publish records from stage outputs.
type RecordBuilder struct {
	models            ModelSet
	videoDuration     int
	defaultConfidence float64
	now               func() time.Time
}

// NewRecordBuilder creates a builder.
// Parameters:
//   - models: model names written onto every record.
//   - videoDuration: clip length recorded on video posts.
//   - defaultConfidence: confidence recorded when the draft carries none.
//
// Returns:
//   - *RecordBuilder: builder using the wall clock for timestamps.
func NewRecordBuilder(models ModelSet, videoDuration int, defaultConfidence float64) *RecordBuilder {
	return &RecordBuilder{
		models:            models,
		videoDuration:     videoDuration,
		defaultConfidence: defaultConfidence,
		now:               time.Now,
	}
}

// Build creates the record for one successful run. It has no side effects;
// two calls with the same inputs differ only in their timestamps.
func (b *RecordBuilder) Build(
	creator domain.CreatorProfile,
	draft *domain.ContentDraft,
	upload domain.UploadResult,
	research *domain.ResearchResult,
	postID string,
) *domain.PublishRecord {
	now := b.now().UTC()

	spec := draft.MediaSpec
	if spec == nil {
		spec = domain.DefaultMediaSpec(creator.PrimaryCategory())
	}
	audioURL := upload.URL(domain.RoleAudio)

	record := &domain.PublishRecord{
		ID:           postID,
		Author:       creator.AuthorID,
		AuthorName:   creator.Name,
		AuthorAvatar: creator.Avatar,

		Description:    draft.Description,
		Hashtags:       cloneStrings(draft.Hashtags),
		Categories:     domain.EnsureCategories(draft.Categories, creator.PrimaryCategory()),
		EngagementHook: draft.EngagementHook,

		MediaURL:          upload.URL(domain.RoleMedia),
		MediaType:         string(spec.Kind),
		MediaURLPortrait:  upload.URL(domain.RolePortrait),
		MediaURLLandscape: upload.URL(domain.RoleLandscape),
		AudioURL:          audioURL,
		VoiceoverScript:   draft.VoiceoverScript,
		HasVoiceover:      audioURL != "",

		MediaGeneration: &domain.MediaGeneration{
			Model:          b.mediaModel(spec.Kind),
			Provider:       MediaProviderName,
			Prompt:         spec.Prompt,
			NegativePrompt: spec.NegativePrompt,
			Style:          spec.Style,
			AspectRatio:    spec.AspectRatio,
			Mood:           spec.Mood,
			GeneratedAt:    now,
		},
		ContentMeta: b.provenance(draft, research),

		IsAIGenerated: true,
		Pipeline:      b.models.Pipeline,
		ResearchModel: b.models.Research,
		WriterModel:   b.models.Writer,
		ImageModel:    b.mediaModel(spec.Kind),
		VoiceModel:    b.models.Voice,
		Status:        domain.PostStatusPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if spec.Kind == domain.MediaKindVideo {
		record.VideoPrompt = spec.Prompt
		record.VideoStyle = spec.Style
		record.VideoDuration = b.videoDuration
	}
	return record
}

func (b *RecordBuilder) mediaModel(kind domain.MediaKind) string {
	if kind == domain.MediaKindVideo {
		return b.models.Video
	}
	return b.models.Image
}

func (b *RecordBuilder) provenance(draft *domain.ContentDraft, research *domain.ResearchResult) *domain.ContentProvenance {
	meta := &domain.ContentProvenance{
		GroundedSources: []domain.Citation{},
		FactChecked:     draft.Meta.FactChecked,
		Confidence:      draft.Meta.Confidence,
		Topic:           draft.Meta.Topic,
	}
	if meta.Confidence <= 0 {
		meta.Confidence = b.defaultConfidence
	}
	if research != nil {
		meta.ResearchHeadline = research.Headline
		meta.ResearchSource = research.Source
		meta.ResearchSourceURL = research.SourceURL
		meta.GroundedSources = append(meta.GroundedSources, research.Citations...)
		if strings.TrimSpace(meta.Topic) == "" {
			meta.Topic = research.Topic
		}
	}
	return meta
}

func cloneStrings(in []string) domain.StringArray {
	out := make(domain.StringArray, 0, len(in))
	return append(out, in...)
}

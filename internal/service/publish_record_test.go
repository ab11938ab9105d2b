package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
)

func testBuilder() *RecordBuilder {
	b := NewRecordBuilder(ModelSet{
		Pipeline: "agentfeed-v1",
		Research: "research-model",
		Writer:   "writer-model",
		Image:    "imagen-test",
		Video:    "veo-test",
		Voice:    "tts-test",
	}, 6, 0.8)
	b.now = func() time.Time { return fixedNow }
	return b
}

func testResearch() *domain.ResearchResult {
	return &domain.ResearchResult{
		Topic:     "chef news",
		Headline:  "Grounded headline",
		Source:    "Wire",
		SourceURL: "https://wire.test/a",
		Citations: []domain.Citation{{URL: "https://wire.test/a"}},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	spec := imageSpec()
	draft := baseDraft(&spec, "script")
	upload := domain.UploadResult{domain.RoleMedia: "https://cdn/m.png", domain.RoleAudio: "https://cdn/a.mp3"}
	b := testBuilder()

	first := b.Build(testCreator("chef"), draft, upload, testResearch(), "post-1")
	second := b.Build(testCreator("chef"), draft, upload, testResearch(), "post-1")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("records differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildImageRecord(t *testing.T) {
	spec := imageSpec()
	draft := baseDraft(&spec, "script")
	upload := domain.UploadResult{
		domain.RoleMedia:     "https://cdn/m.png",
		domain.RolePortrait:  "https://cdn/p.png",
		domain.RoleLandscape: "https://cdn/l.png",
	}

	r := testBuilder().Build(testCreator("chef"), draft, upload, testResearch(), "post-1")
	if r.ID != "post-1" || r.Author != "ai_chef" || r.AuthorName != "CHEF" {
		t.Fatalf("identity = %+v", r)
	}
	if r.MediaType != "image" || r.ImageModel != "imagen-test" || r.MediaGeneration.Model != "imagen-test" {
		t.Fatalf("media = %+v", r)
	}
	if r.MediaGeneration.Provider != MediaProviderName || !r.MediaGeneration.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("generation = %+v", r.MediaGeneration)
	}
	if r.HasVoiceover || r.AudioURL != "" {
		t.Fatal("no audio was uploaded")
	}
	if r.VideoPrompt != "" || r.VideoDuration != 0 {
		t.Fatal("image record should not carry video fields")
	}
	if !r.IsAIGenerated || r.Status != domain.PostStatusPublished || !r.CreatedAt.Equal(fixedNow) {
		t.Fatalf("status = %+v", r)
	}
	if r.ContentMeta.ResearchHeadline != "Grounded headline" || len(r.ContentMeta.GroundedSources) != 1 {
		t.Fatalf("provenance = %+v", r.ContentMeta)
	}
	if r.ContentMeta.Confidence != 0.9 {
		t.Fatalf("confidence = %v", r.ContentMeta.Confidence)
	}
}

func TestBuildVideoRecord(t *testing.T) {
	spec := videoSpec()
	draft := baseDraft(&spec, "")
	draft.Meta.Confidence = 0
	draft.Meta.Topic = ""

	r := testBuilder().Build(testCreator("chef"), draft, domain.UploadResult{}, testResearch(), "post-2")
	if r.MediaType != "video" || r.ImageModel != "veo-test" {
		t.Fatalf("media = %+v", r)
	}
	if r.VideoPrompt != spec.Prompt || r.VideoStyle != "cinematic" || r.VideoDuration != 6 {
		t.Fatalf("video fields = %+v", r)
	}
	if r.ContentMeta.Confidence != 0.8 {
		t.Fatalf("confidence = %v, want default", r.ContentMeta.Confidence)
	}
	if r.ContentMeta.Topic != "chef news" {
		t.Fatalf("topic = %q, want research topic", r.ContentMeta.Topic)
	}
}

func TestBuildDoesNotAliasDraft(t *testing.T) {
	spec := imageSpec()
	draft := baseDraft(&spec, "")
	r := testBuilder().Build(testCreator("chef"), draft, domain.UploadResult{}, nil, "post-3")

	draft.Hashtags[0] = "#changed"
	if r.Hashtags[0] != "#ramen" {
		t.Fatalf("hashtags alias the draft: %v", r.Hashtags)
	}
	if r.ContentMeta.GroundedSources == nil {
		t.Fatal("grounded sources should be an empty list, not nil")
	}
}

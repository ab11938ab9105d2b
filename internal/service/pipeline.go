package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/metrics"
	"github.com/timmy/agentfeed/internal/prompts"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

// PipelineState is a stage of one pipeline run.
type PipelineState string

const (
	StateIdle              PipelineState = "idle"
	StateResearching       PipelineState = "researching"
	StateWriting           PipelineState = "writing"
	StateGeneratingMedia   PipelineState = "generating_media"
	StateSynthesizingVoice PipelineState = "synthesizing_voice"
	StateUploading         PipelineState = "uploading"
	StatePublishing        PipelineState = "publishing"
	StateDone              PipelineState = "done"
	StateFailed            PipelineState = "failed"
)

const maxTraceLen = 500

// PipelineConfig holds the tunables of a pipeline run.
type PipelineConfig struct {
	MinVoiceoverChars int           // shorter scripts get no audio
	MinConfidence     float64       // drafts below are skipped; 0 disables
	VideoBudget       time.Duration // optional poll budget per video job
}

// PipelineDeps are the collaborators of a Pipeline. Content and Indexer are optional.
type PipelineDeps struct {
	Researcher Researcher
	Writer     Writer
	Images     ImageGenerator
	DualRatio  *DualRatioGenerator
	Video      *VideoPoller
	Voice      VoiceSynthesizer
	Storage    storage.ObjectStorage
	Posts      PostSink
	Audit      AuditSink
	Content    ContentLog
	Indexer    *PostIndexer
	Builder    *RecordBuilder
	Metrics    *metrics.Collector
}

// Pipeline runs one creator from research to a published post.
type Pipeline struct {
	PipelineDeps
	cfg       PipelineConfig
	newID     func() string
	now       func() time.Time
	pickTopic func(topics []string) string
}

// NewPipeline creates a pipeline.
// Parameters:
//   - deps: providers, storage, sinks and builder.
//   - cfg: voice-over, confidence and video budget settings.
//
// Returns:
//   - *Pipeline: pipeline allocating UUIDv4 post IDs and picking a random topic per run.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		PipelineDeps: deps,
		cfg:          cfg,
		newID:        uuid.NewString,
		now:          time.Now,
		pickTopic:    randomTopic,
	}
}

func randomTopic(topics []string) string {
	if len(topics) == 0 {
		return ""
	}
	return topics[rand.Intn(len(topics))]
}

// pipelineRun carries the state of one invocation.
type pipelineRun struct {
	creator  domain.CreatorProfile
	postID   string
	state    PipelineState
	started  time.Time
	research *domain.ResearchResult
	draft    *domain.ContentDraft
	media    *domain.MediaArtifact
	dual     *domain.DualRatioResult
	audio    *domain.MediaArtifact
	upload   domain.UploadResult
	record   *domain.PublishRecord
	skip     string
}

func (r *pipelineRun) enter(ctx context.Context, state PipelineState) context.Context {
	r.state = state
	ctx = logger.SetStage(ctx, string(state))
	logger.FromContext(ctx).Debug("Entering stage")
	return ctx
}

// Run executes the pipeline for creator. It never returns an error: fatal
// failures, including panics, become a failed outcome plus an audit entry.
func (p *Pipeline) Run(ctx context.Context, creator domain.CreatorProfile) (outcome *domain.RunOutcome) {
	run := &pipelineRun{
		creator: creator,
		postID:  p.newID(),
		state:   StateIdle,
		started: p.now(),
	}
	ctx = logger.SetCreator(ctx, creator.Key)
	ctx = logger.SetPostID(ctx, run.postID)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s: %v", run.state, r)
			logger.FromContext(ctx).WithField("stack", string(debug.Stack())).Error("Pipeline panicked")
			outcome = p.fail(ctx, run, err)
		}
	}()

	logger.FromContext(ctx).Info("Pipeline started")
	if err := p.execute(ctx, run); err != nil {
		return p.fail(ctx, run, err)
	}
	if run.skip != "" {
		return p.skipped(ctx, run)
	}
	return p.succeed(ctx, run)
}

func (p *Pipeline) execute(ctx context.Context, run *pipelineRun) error {
	if err := p.researchStage(run.enter(ctx, StateResearching), run); err != nil {
		return err
	}
	if err := p.writeStage(run.enter(ctx, StateWriting), run); err != nil {
		return err
	}
	if p.cfg.MinConfidence > 0 && run.draft.Meta.Confidence < p.cfg.MinConfidence {
		run.skip = fmt.Sprintf("confidence %.2f below %.2f", run.draft.Meta.Confidence, p.cfg.MinConfidence)
		return nil
	}
	if err := p.mediaStage(run.enter(ctx, StateGeneratingMedia), run); err != nil {
		return err
	}
	p.voiceStage(run.enter(ctx, StateSynthesizingVoice), run)
	p.uploadStage(run.enter(ctx, StateUploading), run)
	return p.publishStage(run.enter(ctx, StatePublishing), run)
}

func (p *Pipeline) researchStage(ctx context.Context, run *pipelineRun) error {
	topic := p.pickTopic(run.creator.ResearchTopics)
	if topic == "" {
		topic = run.creator.PrimaryCategory()
	}

	research, err := p.Researcher.Research(ctx, topic)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Grounded research failed, using fallback")
		p.Metrics.Fallback(metrics.FallbackResearch)
		research, err = p.Researcher.ResearchFallback(ctx, topic)
		if err != nil {
			return fmt.Errorf("research fallback: %w", err)
		}
	}
	run.research = research
	logger.FromContext(ctx).WithField("headline", research.Headline).Info("Research complete")
	return nil
}

func (p *Pipeline) writeStage(ctx context.Context, run *pipelineRun) error {
	primary := run.creator.PrimaryCategory()

	draft, err := p.Writer.Write(ctx, run.creator.Personality, run.research)
	if err != nil {
		if !domain.IsMalformed(err) {
			return fmt.Errorf("write: %w", err)
		}
		logger.FromContext(ctx).WithError(err).Warn("Writer output unreadable, using fallback draft")
		p.Metrics.Fallback(metrics.FallbackWriter)
		draft = &domain.ContentDraft{Categories: run.creator.Categories}
	}

	if strings.TrimSpace(draft.Description) == "" {
		draft.Description = run.research.Headline
	}
	if strings.TrimSpace(draft.Description) == "" {
		return &domain.ValidationError{Field: "description", Message: "empty after fallback"}
	}
	if draft.MediaSpec == nil || !draft.MediaSpec.Valid() {
		draft.MediaSpec = domain.DefaultMediaSpec(primary)
		p.Metrics.Fallback(metrics.FallbackMediaSpec)
	}
	draft.Categories = domain.EnsureCategories(draft.Categories, primary)

	run.draft = draft
	return nil
}

func (p *Pipeline) mediaStage(ctx context.Context, run *pipelineRun) error {
	spec := run.draft.MediaSpec
	log := logger.FromContext(ctx).WithField("media_type", string(spec.Kind))

	if spec.Kind != domain.MediaKindVideo {
		dual, err := p.DualRatio.Generate(ctx, run.postID, *spec)
		if err != nil {
			return err
		}
		run.dual = dual
		run.media = dual.Primary
		log.Info("Image variants generated")
		return nil
	}

	video, err := p.Video.SubmitAndAwait(ctx, run.postID, *spec, p.cfg.VideoBudget)
	if err == nil {
		run.media = video
		log.Info("Video generated")
		return nil
	}

	log.WithError(err).Warn("Video generation failed, falling back to a still frame")
	p.Metrics.Fallback(metrics.FallbackVideoToImage)

	still := *spec
	still.Kind = domain.MediaKindImage
	still.Prompt = prompts.StillFramePrefix + spec.Prompt
	run.draft.MediaSpec = &still

	image, err := p.Images.GenerateImage(ctx, provider.ImageRequest{
		Prompt:         still.Prompt,
		NegativePrompt: still.NegativePrompt,
		AspectRatio:    still.AspectRatio,
		Style:          still.Style,
	})
	if err != nil {
		log.WithError(err).Warn("Still frame fallback failed, continuing without media")
		return nil
	}
	run.media = image
	return nil
}

func (p *Pipeline) voiceStage(ctx context.Context, run *pipelineRun) {
	script := strings.TrimSpace(run.draft.VoiceoverScript)
	if len([]rune(script)) < p.cfg.MinVoiceoverChars {
		logger.FromContext(ctx).Debug("Voice-over script too short, skipping")
		return
	}

	audio, err := p.Voice.Synthesize(ctx, script, run.creator.Voice)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Voice synthesis failed, continuing without audio")
		return
	}
	run.audio = audio
}

func (p *Pipeline) uploadStage(ctx context.Context, run *pipelineRun) {
	upload := domain.UploadResult{}

	if run.media != nil {
		if url := p.ensurePublic(ctx, run.media, storage.ContentKey(run.postID, run.media.Extension())); url != "" {
			upload[domain.RoleMedia] = url
		}
	}
	if run.dual != nil {
		if run.dual.Portrait != nil && run.dual.Portrait.PublicURL != "" {
			upload[domain.RolePortrait] = run.dual.Portrait.PublicURL
		}
		if run.dual.Landscape != nil && run.dual.Landscape.PublicURL != "" {
			upload[domain.RoleLandscape] = run.dual.Landscape.PublicURL
		}
	}
	if run.audio != nil {
		if url := p.ensurePublic(ctx, run.audio, storage.VoiceKey(run.postID)); url != "" {
			upload[domain.RoleAudio] = url
		}
	}

	run.upload = upload
	logger.With(logger.Fields{}).WithCount(len(upload)).Info(ctx, "Artifacts uploaded")
}

// ensurePublic returns the artifact's public URL, storing it under key first
// when it is not yet public. Failures are logged and yield "".
func (p *Pipeline) ensurePublic(ctx context.Context, art *domain.MediaArtifact, key string) string {
	if art.PublicURL != "" {
		return art.PublicURL
	}
	url, err := storePublic(ctx, p.Storage, key, art, map[string]string{"model": art.Model})
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("key", key).Warn("Artifact upload failed, skipping")
		return ""
	}
	art.StorageKey = key
	art.PublicURL = url
	return url
}

func (p *Pipeline) publishStage(ctx context.Context, run *pipelineRun) error {
	record := p.Builder.Build(run.creator, run.draft, run.upload, run.research, run.postID)
	if err := p.Posts.Put(ctx, record); err != nil {
		return fmt.Errorf("publish post: %w", err)
	}
	run.record = record

	if p.Content != nil {
		entry := &domain.CreatorContent{
			Creator:      run.creator.Key,
			PostID:       record.ID,
			Topic:        record.ContentMeta.Topic,
			Headline:     run.research.Headline,
			MediaType:    record.MediaType,
			HasVoiceover: record.HasVoiceover,
		}
		if err := p.Content.Append(ctx, entry); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to append creator content log")
		}
	}
	if err := p.Indexer.Index(ctx, record); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to index post")
	}
	return nil
}

func (p *Pipeline) succeed(ctx context.Context, run *pipelineRun) *domain.RunOutcome {
	run.state = StateDone
	elapsed := p.now().Sub(run.started)
	p.Metrics.RunFinished(run.creator.Key, "success", elapsed)

	logger.With(logger.Fields{"media_type": run.record.MediaType}).
		WithDuration(elapsed).WithStatus("success").
		Info(ctx, "Pipeline finished")

	return &domain.RunOutcome{
		Creator:      run.creator.Key,
		CreatorName:  run.creator.Name,
		Success:      true,
		PostID:       run.record.ID,
		MediaType:    run.record.MediaType,
		MediaURL:     run.record.MediaURL,
		HasVoiceover: run.record.HasVoiceover,
		Elapsed:      elapsed,
		ElapsedMs:    elapsed.Milliseconds(),
	}
}

func (p *Pipeline) skipped(ctx context.Context, run *pipelineRun) *domain.RunOutcome {
	run.state = StateDone
	elapsed := p.now().Sub(run.started)
	p.Metrics.RunFinished(run.creator.Key, "skipped", elapsed)
	logger.With(logger.Fields{"reason": run.skip}).WithDuration(elapsed).WithStatus("skipped").
		Info(ctx, "Pipeline skipped")

	return &domain.RunOutcome{
		Creator:     run.creator.Key,
		CreatorName: run.creator.Name,
		Success:     true,
		Skipped:     true,
		Reason:      run.skip,
		Elapsed:     elapsed,
		ElapsedMs:   elapsed.Milliseconds(),
	}
}

// fail converts a fatal error into a failed outcome and appends an audit entry.
func (p *Pipeline) fail(ctx context.Context, run *pipelineRun, err error) *domain.RunOutcome {
	stage := string(run.state)
	var mediaErr *domain.MediaGenerationError
	if errors.As(err, &mediaErr) {
		stage = mediaErr.Stage
	}
	run.state = StateFailed
	elapsed := p.now().Sub(run.started)

	p.Metrics.StageFailure(stage)
	p.Metrics.RunFinished(run.creator.Key, "failed", elapsed)
	logger.With(logger.Fields{logger.FieldStage: stage}).WithDuration(elapsed).WithStatus("failed").
		Error(ctx, "Pipeline failed: %v", err)

	entry := &domain.AgentLog{
		Type:        domain.AgentLogRunFailure,
		Creator:     run.creator.Key,
		CreatorName: run.creator.Name,
		Status:      "failed",
		Stage:       stage,
		Error:       err.Error(),
		Trace:       errorTrace(err),
		ElapsedMs:   elapsed.Milliseconds(),
		CreatedAt:   p.now().UTC(),
	}
	if auditErr := p.Audit.Append(context.WithoutCancel(ctx), entry); auditErr != nil {
		logger.FromContext(ctx).WithError(auditErr).Warn("Failed to append audit entry")
	}

	return &domain.RunOutcome{
		Creator:     run.creator.Key,
		CreatorName: run.creator.Name,
		Success:     false,
		Reason:      stage,
		Elapsed:     elapsed,
		ElapsedMs:   elapsed.Milliseconds(),
		Error:       err.Error(),
	}
}

// errorTrace renders the unwrap chain of err, one type per layer, truncated
// to maxTraceLen bytes on a rune boundary.
func errorTrace(err error) string {
	var sb strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		if sb.Len() > 0 {
			sb.WriteString(" <- ")
		}
		fmt.Fprintf(&sb, "%T: %s", e, e.Error())
		if sb.Len() >= maxTraceLen {
			break
		}
	}
	return domain.Truncate(sb.String(), maxTraceLen)
}

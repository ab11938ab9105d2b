package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

// VideoPollerConfig holds configuration for VideoPoller.
type VideoPollerConfig struct {
	Interval        time.Duration // sleep before each poll, default 10s
	MaxPolls        int           // poll cap, default 30
	DurationSeconds int           // requested clip length
	OutputBucket    string        // bucket the provider writes videos into; empty returns inline bytes
}

// VideoPoller submits a video job and waits for it with a bounded poll loop.
type VideoPoller struct {
	video   VideoGenerator
	storage storage.ObjectStorage
	cfg     VideoPollerConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewVideoPoller creates a poller with defaults applied to cfg.
func NewVideoPoller(video VideoGenerator, objectStorage storage.ObjectStorage, cfg VideoPollerConfig) *VideoPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 30
	}
	return &VideoPoller{video: video, storage: objectStorage, cfg: cfg, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SubmitAndAwait runs one video job to completion.
// Parameters:
//   - ctx: context for cancellation; cancellation ends the loop.
//   - postID: content identifier used for the output location.
//   - spec: media directive; Prompt, NegativePrompt, AspectRatio and Style are used.
//   - budget: optional wall-clock budget; when non-zero the poll cap is budget/interval.
//
// Returns:
//   - *domain.MediaArtifact: the video, made public when it lives in object storage.
//   - error: a MediaGenerationError with stage submit, poll, extract or timeout.
func (p *VideoPoller) SubmitAndAwait(ctx context.Context, postID string, spec domain.MediaSpec, budget time.Duration) (*domain.MediaArtifact, error) {
	req := provider.VideoRequest{
		Prompt:          spec.Prompt,
		NegativePrompt:  spec.NegativePrompt,
		AspectRatio:     spec.AspectRatio,
		Style:           spec.Style,
		DurationSeconds: p.cfg.DurationSeconds,
	}
	return p.await(ctx, postID, req, budget)
}

// AnimateAndAwait runs one video job seeded with a still image. It follows
// the same stage rules as SubmitAndAwait.
func (p *VideoPoller) AnimateAndAwait(ctx context.Context, jobID string, image []byte, prompt, aspectRatio string, budget time.Duration) (*domain.MediaArtifact, error) {
	return p.await(ctx, jobID, provider.VideoRequest{
		Prompt:          prompt,
		AspectRatio:     aspectRatio,
		DurationSeconds: p.cfg.DurationSeconds,
		Image:           image,
	}, budget)
}

func (p *VideoPoller) await(ctx context.Context, id string, req provider.VideoRequest, budget time.Duration) (*domain.MediaArtifact, error) {
	if p.cfg.OutputBucket != "" {
		req.OutputURI = storage.VideoOutputURI(p.cfg.OutputBucket, id)
	}

	handle, err := p.video.SubmitVideo(ctx, req)
	if err != nil {
		return nil, &domain.MediaGenerationError{Stage: domain.StageSubmit, Err: err}
	}
	if handle == "" {
		return nil, &domain.MediaGenerationError{Stage: domain.StageSubmit, Reason: "no_handle"}
	}

	maxPolls := p.cfg.MaxPolls
	if budget > 0 {
		maxPolls = int(budget / p.cfg.Interval)
		if maxPolls < 1 {
			maxPolls = 1
		}
	}

	log := logger.FromContext(ctx).WithField("operation", handle)
	for polls := 1; polls <= maxPolls; polls++ {
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return nil, &domain.MediaGenerationError{Stage: domain.StagePoll, Reason: "canceled", Err: err}
		}

		status, err := p.video.PollVideo(ctx, handle)
		if err != nil {
			return nil, &domain.MediaGenerationError{Stage: domain.StagePoll, Err: err}
		}
		if !status.Done {
			log.WithField(logger.FieldCount, polls).Debug("Video still rendering")
			continue
		}
		if status.Failure != "" {
			return nil, &domain.MediaGenerationError{
				Stage:  domain.StagePoll,
				Reason: "operation_failed",
				Err:    errors.New(status.Failure),
			}
		}
		return p.extract(ctx, status, req.AspectRatio)
	}

	return nil, &domain.MediaGenerationError{
		Stage:  domain.StageTimeout,
		Reason: fmt.Sprintf("not done after %d polls", maxPolls),
	}
}

func (p *VideoPoller) extract(ctx context.Context, status *provider.VideoStatus, ratio string) (*domain.MediaArtifact, error) {
	switch {
	case status.StorageURI != "":
		key, ok := p.storage.KeyFromURL(status.StorageURI)
		if !ok {
			return nil, &domain.MediaGenerationError{
				Stage:  domain.StageExtract,
				Reason: "unknown_location",
				Err:    fmt.Errorf("%s is outside the media bucket", status.StorageURI),
			}
		}
		data, err := p.storage.Download(ctx, key)
		if err != nil {
			return nil, &domain.MediaGenerationError{Stage: domain.StageExtract, Reason: "download", Err: err}
		}

		art := &domain.MediaArtifact{Data: data, ContentType: domain.ContentTypeMP4, AspectRatio: ratio, StorageKey: key}
		if url, err := p.storage.MakePublic(ctx, key); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to make video public")
		} else {
			art.PublicURL = url
		}
		return art, nil

	case len(status.Inline) > 0:
		return &domain.MediaArtifact{Data: status.Inline, ContentType: domain.ContentTypeMP4, AspectRatio: ratio}, nil

	default:
		return nil, &domain.MediaGenerationError{Stage: domain.StageExtract, Reason: "no_data"}
	}
}

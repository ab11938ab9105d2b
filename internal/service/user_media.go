package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/prompts"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

// UserMediaResult reports the ratio variants produced for an upload.
type UserMediaResult struct {
	PostID       string            `json:"postId"`
	PortraitURL  string            `json:"portraitUrl,omitempty"`
	LandscapeURL string            `json:"landscapeUrl,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
	Existing     bool              `json:"existing,omitempty"`
}

// UserMediaService outpaints user uploads into portrait and landscape frames.
type UserMediaService struct {
	posts   PostStore
	editor  ImageEditor
	storage storage.ObjectStorage
	client  *resty.Client
}

// NewUserMediaService creates the service. Originals outside the media bucket
// are fetched over HTTP with the given timeout.
func NewUserMediaService(posts PostStore, editor ImageEditor, objectStorage storage.ObjectStorage, timeout time.Duration) *UserMediaService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &UserMediaService{
		posts:   posts,
		editor:  editor,
		storage: objectStorage,
		client:  resty.New().SetTimeout(timeout),
	}
}

var outpaintPrompts = map[domain.Variant]string{
	domain.VariantPortrait:  prompts.OutpaintPortrait,
	domain.VariantLandscape: prompts.OutpaintLandscape,
}

// Process builds both ratio variants for a user post. Both edits run
// concurrently and settle independently; only the URLs that succeeded are
// written back.
func (s *UserMediaService) Process(ctx context.Context, postID string) (*UserMediaResult, error) {
	ctx = logger.SetPostID(ctx, postID)

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.IsAIGenerated {
		return nil, &domain.ValidationError{Field: "post", Message: "AI posts already carry both ratios"}
	}
	if post.MediaURL == "" || post.MediaType == string(domain.MediaKindVideo) {
		return nil, &domain.ValidationError{Field: "mediaUrl", Message: "post has no image to process"}
	}
	if post.HasDualRatio() {
		return &UserMediaResult{
			PostID:       postID,
			PortraitURL:  post.MediaURLPortrait,
			LandscapeURL: post.MediaURLLandscape,
			Existing:     true,
		}, nil
	}

	original, err := s.fetchOriginal(ctx, post.MediaURL)
	if err != nil {
		return nil, err
	}

	variants := []domain.Variant{domain.VariantPortrait, domain.VariantLandscape}
	urls := make([]string, len(variants))
	errs := make([]error, len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(i int, v domain.Variant) {
			defer wg.Done()
			urls[i], errs[i] = s.outpaint(ctx, postID, original, v)
		}(i, v)
	}
	wg.Wait()

	result := &UserMediaResult{PostID: postID, PortraitURL: urls[0], LandscapeURL: urls[1]}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if result.Errors == nil {
			result.Errors = map[string]string{}
		}
		result.Errors[string(variants[i])] = err.Error()
		logger.FromContext(ctx).WithError(err).WithField("variant", string(variants[i])).Warn("Outpaint failed")
	}

	if result.PortraitURL == "" && result.LandscapeURL == "" {
		return nil, &domain.MediaGenerationError{
			Stage:  domain.StageDualRatio,
			Reason: "both_failed",
			Err:    fmt.Errorf("portrait: %v; landscape: %v", errs[0], errs[1]),
		}
	}
	if err := s.posts.UpdateDualRatio(ctx, postID, result.PortraitURL, result.LandscapeURL); err != nil {
		return nil, fmt.Errorf("update post ratios: %w", err)
	}
	return result, nil
}

func (s *UserMediaService) outpaint(ctx context.Context, postID string, original []byte, v domain.Variant) (string, error) {
	art, err := s.editor.EditImage(ctx, provider.EditRequest{
		Image:       original,
		Prompt:      outpaintPrompts[v],
		AspectRatio: v.AspectRatio(),
	})
	if err != nil {
		return "", err
	}
	key := storage.UserVariantKey(postID, v, art.Extension())
	return storePublic(ctx, s.storage, key, art, map[string]string{
		"aspectRatio": v.AspectRatio(),
		"variant":     string(v),
		"source":      "user-upload",
	})
}

// fetchOriginal reads the upload from the media bucket when the URL points
// into it, otherwise over HTTP.
func (s *UserMediaService) fetchOriginal(ctx context.Context, mediaURL string) ([]byte, error) {
	if key, ok := s.storage.KeyFromURL(mediaURL); ok {
		return s.storage.Download(ctx, key)
	}

	resp, err := s.client.R().SetContext(ctx).Get(mediaURL)
	if err != nil {
		return nil, &domain.StorageError{Op: "fetch", Key: mediaURL, Err: err}
	}
	if resp.IsError() {
		return nil, &domain.StorageError{Op: "fetch", Key: mediaURL, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return resp.Body(), nil
}

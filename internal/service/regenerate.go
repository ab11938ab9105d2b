package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

// MediaRegenerator re-renders the image of an existing post from its stored
// generation parameters.
type MediaRegenerator struct {
	posts   PostStore
	images  ImageGenerator
	storage storage.ObjectStorage
	now     func() time.Time
}

// NewMediaRegenerator creates a regenerator.
func NewMediaRegenerator(posts PostStore, images ImageGenerator, objectStorage storage.ObjectStorage) *MediaRegenerator {
	return &MediaRegenerator{posts: posts, images: images, storage: objectStorage, now: time.Now}
}

// Regenerate replaces the post's media URL with a freshly generated image and
// stamps regeneratedAt. Nothing else on the post changes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - postID: post to regenerate.
//
// Returns:
//   - string: the new public media URL.
//   - error: domain.ErrNotFound, a ValidationError for posts without image
//     generation parameters, or the provider/storage failure.
func (r *MediaRegenerator) Regenerate(ctx context.Context, postID string) (string, error) {
	ctx = logger.SetPostID(ctx, postID)

	post, err := r.posts.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	gen := post.MediaGeneration
	if gen == nil || gen.Prompt == "" {
		return "", &domain.ValidationError{Field: "mediaGeneration", Message: "post has no stored generation parameters"}
	}
	if post.MediaType == string(domain.MediaKindVideo) {
		return "", &domain.ValidationError{Field: "mediaType", Message: "only image posts can be regenerated"}
	}

	art, err := r.images.GenerateImage(ctx, provider.ImageRequest{
		Prompt:         gen.Prompt,
		NegativePrompt: gen.NegativePrompt,
		AspectRatio:    gen.AspectRatio,
		Style:          gen.Style,
	})
	if err != nil {
		return "", fmt.Errorf("regenerate image: %w", err)
	}

	key := storage.ContentKey(postID, art.Extension())
	url, err := storePublic(ctx, r.storage, key, art, map[string]string{"model": art.Model, "regenerated": "true"})
	if err != nil {
		return "", err
	}

	now := r.now().UTC()
	updated := *gen
	updated.RegeneratedAt = &now
	if art.Model != "" {
		updated.Model = art.Model
	}
	if err := r.posts.UpdateMedia(ctx, postID, url, &updated); err != nil {
		return "", fmt.Errorf("update post media: %w", err)
	}

	logger.FromContext(ctx).WithField("media_url", url).Info("Media regenerated")
	return url, nil
}

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/prompts"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/storage"
)

// DualRatioGenerator renders portrait and landscape variants of one image spec.
type DualRatioGenerator struct {
	images  ImageGenerator
	storage storage.ObjectStorage
	primary domain.Variant
}

// NewDualRatioGenerator creates a generator.
// Parameters:
//   - images: image generation provider.
//   - objectStorage: where successful variants are stored.
//   - primary: preferred primary variant; empty means portrait.
//
// Returns:
//   - *DualRatioGenerator: generator instance.
func NewDualRatioGenerator(images ImageGenerator, objectStorage storage.ObjectStorage, primary domain.Variant) *DualRatioGenerator {
	if primary != domain.VariantLandscape {
		primary = domain.VariantPortrait
	}
	return &DualRatioGenerator{images: images, storage: objectStorage, primary: primary}
}

type variantResult struct {
	variant  domain.Variant
	artifact *domain.MediaArtifact
	err      error
}

// Generate requests both variants concurrently and waits for both to settle.
// A variant that fails never cancels the other. Each success is stored under
// ai-content/{postID}-{variant}.png and made public; a variant whose storage
// fails keeps its artifact without a URL.
// Returns a MediaGenerationError with stage dual_ratio when both variants fail.
func (g *DualRatioGenerator) Generate(ctx context.Context, postID string, spec domain.MediaSpec) (*domain.DualRatioResult, error) {
	variants := []domain.Variant{domain.VariantPortrait, domain.VariantLandscape}
	results := make([]variantResult, len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		wg.Add(1)
		go func(i int, v domain.Variant) {
			defer wg.Done()
			results[i] = g.generateVariant(ctx, postID, spec, v)
		}(i, v)
	}
	wg.Wait()

	out := &domain.DualRatioResult{Errors: map[domain.Variant]error{}}
	for _, r := range results {
		if r.err != nil {
			out.Errors[r.variant] = r.err
			logger.FromContext(ctx).WithError(r.err).WithField("variant", string(r.variant)).
				Warn("Variant generation failed")
			continue
		}
		switch r.variant {
		case domain.VariantPortrait:
			out.Portrait = r.artifact
		case domain.VariantLandscape:
			out.Landscape = r.artifact
		}
	}

	if out.Portrait == nil && out.Landscape == nil {
		return nil, &domain.MediaGenerationError{
			Stage:  domain.StageDualRatio,
			Reason: "both_failed",
			Err:    fmt.Errorf("portrait: %v; landscape: %v", out.Errors[domain.VariantPortrait], out.Errors[domain.VariantLandscape]),
		}
	}

	out.Primary = selectPrimary(out, g.primary)
	return out, nil
}

func selectPrimary(r *domain.DualRatioResult, preferred domain.Variant) *domain.MediaArtifact {
	if preferred == domain.VariantLandscape && r.Landscape != nil {
		return r.Landscape
	}
	if r.Portrait != nil {
		return r.Portrait
	}
	return r.Landscape
}

func (g *DualRatioGenerator) generateVariant(ctx context.Context, postID string, spec domain.MediaSpec, v domain.Variant) variantResult {
	prompt := spec.Prompt
	if v == domain.VariantLandscape {
		prompt += prompts.LandscapeSuffix
	}

	art, err := g.images.GenerateImage(ctx, provider.ImageRequest{
		Prompt:         prompt,
		NegativePrompt: spec.NegativePrompt,
		AspectRatio:    v.AspectRatio(),
		Style:          spec.Style,
	})
	if err != nil {
		return variantResult{variant: v, err: err}
	}

	key := storage.VariantKey(postID, v, art.Extension())
	url, err := storePublic(ctx, g.storage, key, art, map[string]string{
		"aspectRatio": v.AspectRatio(),
		"variant":     string(v),
		"model":       art.Model,
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("variant", string(v)).
			Warn("Variant upload failed, keeping artifact without URL")
	} else {
		art.StorageKey = key
		art.PublicURL = url
	}
	return variantResult{variant: v, artifact: art}
}

// storePublic writes an artifact with long-lived cache headers and returns
// its public URL.
func storePublic(ctx context.Context, objectStorage storage.ObjectStorage, key string, art *domain.MediaArtifact, metadata map[string]string) (string, error) {
	if err := objectStorage.Store(ctx, key, art.Data, art.ContentType, storage.ObjectMeta{
		CacheControl: storage.PublicCacheControl,
		Metadata:     metadata,
	}); err != nil {
		return "", err
	}
	return objectStorage.MakePublic(ctx, key)
}

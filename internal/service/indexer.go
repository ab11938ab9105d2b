package service

import (
	"context"
	"fmt"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/prompts"
	"github.com/timmy/agentfeed/internal/repository"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores post vectors.
type VectorIndex interface {
	Upsert(ctx context.Context, vector []float32, payload *repository.PostPayload) error
}

// PostIndexer embeds published posts into the vector index for discovery.
// A nil *PostIndexer indexes nothing.
type PostIndexer struct {
	embedder Embedder
	index    VectorIndex
}

// NewPostIndexer creates an indexer.
func NewPostIndexer(embedder Embedder, index VectorIndex) *PostIndexer {
	return &PostIndexer{embedder: embedder, index: index}
}

// Index embeds the post's text and upserts it under the post's point ID.
func (i *PostIndexer) Index(ctx context.Context, post *domain.PublishRecord) error {
	if i == nil {
		return nil
	}

	topic := ""
	if post.ContentMeta != nil {
		topic = post.ContentMeta.Topic
	}
	vector, err := i.embedder.Embed(ctx, prompts.EmbeddingText(post.Description, post.Hashtags, topic))
	if err != nil {
		return fmt.Errorf("embed post %s: %w", post.ID, err)
	}

	return i.index.Upsert(ctx, vector, &repository.PostPayload{
		PostID:     post.ID,
		Author:     post.Author,
		Topic:      topic,
		MediaType:  post.MediaType,
		MediaURL:   post.MediaURL,
		Categories: post.Categories,
		Hashtags:   post.Hashtags,
		CreatedAt:  post.CreatedAt.Unix(),
	})
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository handles publish record operations.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *PostRepository: repository instance bound to db.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Put writes a post keyed by its ID. Writing the same record twice leaves
// one row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - post: record to create or replace.
//
// Returns:
//   - error: non-nil if the upsert fails.
func (r *PostRepository) Put(ctx context.Context, post *domain.PublishRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(post).Error
}

// GetByID retrieves a post by its ID.
// Returns domain.ErrNotFound when no such post exists.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.PublishRecord, error) {
	var post domain.PublishRecord
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// LatestByAuthor returns the newest post of an author.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - author: creator author ID.
//
// Returns:
//   - *domain.PublishRecord: the most recent post.
//   - error: domain.ErrNotFound when the author has never posted.
func (r *PostRepository) LatestByAuthor(ctx context.Context, author string) (*domain.PublishRecord, error) {
	var post domain.PublishRecord
	err := r.db.WithContext(ctx).
		Where("author = ?", author).
		Order("created_at DESC").
		First(&post).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// CountByAuthor counts posts of an author.
func (r *PostRepository) CountByAuthor(ctx context.Context, author string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PublishRecord{}).Where("author = ?", author).Count(&count).Error
	return count, err
}

// UpdateMedia replaces the media of a post after regeneration.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: post ID.
//   - mediaURL: new primary media URL.
//   - gen: generation parameters; RegeneratedAt should be set by the caller.
//
// Returns:
//   - error: domain.ErrNotFound when no row matched.
func (r *PostRepository) UpdateMedia(ctx context.Context, id, mediaURL string, gen *domain.MediaGeneration) error {
	result := r.db.WithContext(ctx).Model(&domain.PublishRecord{}).
		Where("id = ?", id).
		Select("media_url", "media_generation", "updated_at").
		Updates(&domain.PublishRecord{MediaURL: mediaURL, MediaGeneration: gen, UpdatedAt: time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateDualRatio attaches ratio variants to a post. Empty URLs are left unchanged.
func (r *PostRepository) UpdateDualRatio(ctx context.Context, id, portraitURL, landscapeURL string) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if portraitURL != "" {
		updates["media_url_portrait"] = portraitURL
	}
	if landscapeURL != "" {
		updates["media_url_landscape"] = landscapeURL
	}
	result := r.db.WithContext(ctx).Model(&domain.PublishRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPublishedSince lists published posts created after since, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - since: lower bound on creation time.
//   - limit: maximum number of records to return.
//
// Returns:
//   - []domain.PublishRecord: matching posts.
//   - error: non-nil if the query fails.
func (r *PostRepository) ListPublishedSince(ctx context.Context, since time.Time, limit int) ([]domain.PublishRecord, error) {
	var posts []domain.PublishRecord
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ?", domain.PostStatusPublished, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateEngagementScore stores a recomputed score.
func (r *PostRepository) UpdateEngagementScore(ctx context.Context, id string, score float64) error {
	return r.db.WithContext(ctx).Model(&domain.PublishRecord{}).
		Where("id = ?", id).
		UpdateColumn("engagement_score", score).Error
}

// TopByCategory lists the highest-scoring published posts tagged with
// category. Categories are stored as a JSON array, so the match is on the
// quoted element.
func (r *PostRepository) TopByCategory(ctx context.Context, category string, limit int) ([]domain.PublishRecord, error) {
	var posts []domain.PublishRecord
	if err := r.db.WithContext(ctx).
		Where("status = ? AND categories LIKE ?", domain.PostStatusPublished, `%"`+category+`"%`).
		Order("engagement_score DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

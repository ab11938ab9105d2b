package repository

import (
	"context"

	"github.com/timmy/agentfeed/internal/domain"
	"gorm.io/gorm"
)

// UsageRepository stores provider token usage.
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Record inserts one usage row.
func (r *UsageRepository) Record(ctx context.Context, usage *domain.UsageLog) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// CreatorContentRepository stores the per-creator content log.
type CreatorContentRepository struct {
	db *gorm.DB
}

// NewCreatorContentRepository creates a new CreatorContentRepository.
func NewCreatorContentRepository(db *gorm.DB) *CreatorContentRepository {
	return &CreatorContentRepository{db: db}
}

// Append inserts one content log entry.
func (r *CreatorContentRepository) Append(ctx context.Context, entry *domain.CreatorContent) error {
	return r.db.WithContext(ctx).Create(entry).Error
}


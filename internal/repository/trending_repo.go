package repository

import (
	"context"

	"github.com/timmy/agentfeed/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrendingRepository stores the curated per-category trending lists.
type TrendingRepository struct {
	db *gorm.DB
}

// NewTrendingRepository creates a new TrendingRepository.
func NewTrendingRepository(db *gorm.DB) *TrendingRepository {
	return &TrendingRepository{db: db}
}

// Save replaces the list of one category.
func (r *TrendingRepository) Save(ctx context.Context, list *domain.TrendingList) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		UpdateAll: true,
	}).Create(list).Error
}

// List returns every curated category ordered by name.
func (r *TrendingRepository) List(ctx context.Context) ([]domain.TrendingList, error) {
	var lists []domain.TrendingList
	if err := r.db.WithContext(ctx).Order("category").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
)

const defaultTrendingLimit = 20

// CategoryRanker lists the best-scoring published posts of a category.
type CategoryRanker interface {
	TopByCategory(ctx context.Context, category string, limit int) ([]domain.PublishRecord, error)
}

// TrendingStore persists curated lists.
type TrendingStore interface {
	Save(ctx context.Context, list *domain.TrendingList) error
	List(ctx context.Context) ([]domain.TrendingList, error)
}

// TrendingService curates the per-category trending lists from engagement scores.
type TrendingService struct {
	posts      CategoryRanker
	store      TrendingStore
	categories []string
	limit      int
	now        func() time.Time
}

// NewTrendingService creates a curator over categories. A non-positive
// limit keeps the top 20.
func NewTrendingService(posts CategoryRanker, store TrendingStore, categories []string, limit int) *TrendingService {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	return &TrendingService{posts: posts, store: store, categories: categories, limit: limit, now: time.Now}
}

// Curate rebuilds every category list and returns how many were saved.
// A failing category is logged and skipped; its error is part of the
// returned error.
func (s *TrendingService) Curate(ctx context.Context) (int, error) {
	start := s.now()
	var errs []error
	saved := 0
	for _, category := range s.categories {
		if err := s.curateOne(ctx, category, start); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("category", category).
				Warn("Failed to curate trending list")
			errs = append(errs, fmt.Errorf("%s: %w", category, err))
			continue
		}
		saved++
	}

	logger.With(logger.Fields{"categories": len(s.categories)}).WithCount(saved).
		WithDuration(s.now().Sub(start)).Info(ctx, "Trending curated")
	return saved, errors.Join(errs...)
}

func (s *TrendingService) curateOne(ctx context.Context, category string, at time.Time) error {
	top, err := s.posts.TopByCategory(ctx, category, s.limit)
	if err != nil {
		return err
	}
	ids := make(domain.StringArray, 0, len(top))
	for i := range top {
		ids = append(ids, top[i].ID)
	}
	return s.store.Save(ctx, &domain.TrendingList{Category: category, PostIDs: ids, UpdatedAt: at})
}

// Lists returns the current curated lists.
func (s *TrendingService) Lists(ctx context.Context) ([]domain.TrendingList, error) {
	return s.store.List(ctx)
}

package service

import (
	"context"
	"math"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
)

const (
	engagementWindow = 7 * 24 * time.Hour
	engagementLimit  = 500
)

// EngagementScore ranks a post by weighted interactions decayed by age.
func EngagementScore(p *domain.PublishRecord, now time.Time) float64 {
	ageHours := now.Sub(p.CreatedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	weighted := float64(p.Likes) +
		3*float64(p.Comments) +
		5*float64(p.Shares) +
		4*float64(p.Saves) +
		0.1*float64(p.Views)
	return weighted / math.Pow(ageHours+2, 1.5)
}

// EngagementService recomputes scores of recent posts.
type EngagementService struct {
	posts PostStore
	now   func() time.Time
}

// NewEngagementService creates an engagement service.
func NewEngagementService(posts PostStore) *EngagementService {
	return &EngagementService{posts: posts, now: time.Now}
}

// Recompute rescores published posts of the last week and returns how many
// scores were written.
func (s *EngagementService) Recompute(ctx context.Context) (int, error) {
	start := s.now()
	posts, err := s.posts.ListPublishedSince(ctx, start.Add(-engagementWindow), engagementLimit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range posts {
		score := math.Round(EngagementScore(&posts[i], start)*100) / 100
		if score == posts[i].EngagementScore {
			continue
		}
		if err := s.posts.UpdateEngagementScore(ctx, posts[i].ID, score); err != nil {
			logger.FromContext(ctx).WithError(err).WithField(logger.FieldPostID, posts[i].ID).
				Warn("Failed to update engagement score")
			continue
		}
		updated++
	}

	logger.With(logger.Fields{"scanned": len(posts)}).WithCount(updated).
		WithDuration(s.now().Sub(start)).Info(ctx, "Engagement recomputed")
	return updated, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
)

// FrequencyGate decides whether a creator may post again.
type FrequencyGate struct {
	posts LatestPostFinder
	now   func() time.Time
}

// NewFrequencyGate creates a gate backed by the post store.
func NewFrequencyGate(posts LatestPostFinder) *FrequencyGate {
	return &FrequencyGate{posts: posts, now: time.Now}
}

// ShouldRun reports whether at least creator.MinInterval has passed since the
// creator's latest post. A creator that never posted may always run.
func (g *FrequencyGate) ShouldRun(ctx context.Context, creator domain.CreatorProfile) (bool, error) {
	latest, err := g.posts.LatestByAuthor(ctx, creator.AuthorID)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup latest post of %s: %w", creator.Key, err)
	}

	elapsed := g.now().Sub(latest.CreatedAt)
	allowed := elapsed >= creator.MinInterval
	logger.FromContext(ctx).WithFields(logger.Fields{
		"elapsed":      elapsed.Round(time.Minute).String(),
		"min_interval": creator.MinInterval.String(),
		"allowed":      allowed,
	}).Debug("Frequency check")
	return allowed, nil
}

package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/timmy/agentfeed/internal/domain"
)

// AgentStatus summarizes one creator for operators.
type AgentStatus struct {
	Key          string           `json:"key"`
	Name         string           `json:"name"`
	AuthorID     string           `json:"authorId"`
	Categories   []string         `json:"categories"`
	MinInterval  string           `json:"minInterval"`
	Voice        domain.VoiceSpec `json:"voice"`
	TotalPosts   int64            `json:"totalPosts"`
	LastPost     *PostSummary     `json:"lastPost,omitempty"`
	NextEligible *time.Time       `json:"nextEligible,omitempty"`
}

// PostSummary is a short view of a post.
type PostSummary struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	MediaType   string    `json:"mediaType"`
	CreatedAt   time.Time `json:"createdAt"`
}

const summaryLen = 80

// StatusService reports roster status.
type StatusService struct {
	roster []domain.CreatorProfile
	posts  PostStore
}

// NewStatusService creates a status service.
func NewStatusService(roster []domain.CreatorProfile, posts PostStore) *StatusService {
	return &StatusService{roster: roster, posts: posts}
}

// Status returns one entry per creator in roster order.
func (s *StatusService) Status(ctx context.Context) ([]AgentStatus, error) {
	out := make([]AgentStatus, 0, len(s.roster))
	for _, c := range s.roster {
		st := AgentStatus{
			Key:         c.Key,
			Name:        c.Name,
			AuthorID:    c.AuthorID,
			Categories:  c.Categories,
			MinInterval: c.MinInterval.String(),
			Voice:       c.Voice,
		}

		total, err := s.posts.CountByAuthor(ctx, c.AuthorID)
		if err != nil {
			return nil, err
		}
		st.TotalPosts = total

		latest, err := s.posts.LatestByAuthor(ctx, c.AuthorID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			st.LastPost = &PostSummary{
				ID:          latest.ID,
				Description: truncate(latest.Description, summaryLen),
				MediaType:   latest.MediaType,
				CreatedAt:   latest.CreatedAt,
			}
			next := latest.CreatedAt.Add(c.MinInterval)
			st.NextEligible = &next
		}
		out = append(out, st)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

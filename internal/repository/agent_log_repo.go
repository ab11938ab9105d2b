package repository

import (
	"context"

	"github.com/timmy/agentfeed/internal/domain"
	"gorm.io/gorm"
)

// AgentLogRepository appends audit entries.
type AgentLogRepository struct {
	db *gorm.DB
}

// NewAgentLogRepository creates a new AgentLogRepository.
func NewAgentLogRepository(db *gorm.DB) *AgentLogRepository {
	return &AgentLogRepository{db: db}
}

// Append inserts one audit entry.
func (r *AgentLogRepository) Append(ctx context.Context, entry *domain.AgentLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}


package domain

import "time"

// RunOutcome is the result of one creator's pipeline invocation.
type RunOutcome struct {
	Creator      string        `json:"creator"`
	CreatorName  string        `json:"creatorName"`
	Success      bool          `json:"success"`
	Skipped      bool          `json:"skipped,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	PostID       string        `json:"postId,omitempty"`
	MediaType    string        `json:"mediaType,omitempty"`
	MediaURL     string        `json:"mediaUrl,omitempty"`
	HasVoiceover bool          `json:"hasVoiceover"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMs    int64         `json:"elapsedMs"`
	Error        string        `json:"error,omitempty"`
}

// CycleReport aggregates the outcomes of one roster pass.
type CycleReport struct {
	ID           string        `json:"id"`
	Results      []RunOutcome  `json:"results"`
	SuccessCount int           `json:"successCount"`
	StartedAt    time.Time     `json:"startedAt"`
	Elapsed      time.Duration `json:"-"`
}

// CountSuccesses counts outcomes that ran and succeeded.
func CountSuccesses(results []RunOutcome) int {
	n := 0
	for _, r := range results {
		if r.Success && !r.Skipped {
			n++
		}
	}
	return n
}

// AgentLogType distinguishes audit entries.
type AgentLogType string

const (
	AgentLogRunFailure AgentLogType = "run_failure"
	AgentLogCycle      AgentLogType = "cycle"
)

// AgentLog is an audit entry written for failed runs and finished cycles.
type AgentLog struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Type         AgentLogType `gorm:"type:text;not null;index:idx_agent_logs_type" json:"type"`
	Creator      string       `gorm:"type:text;index:idx_agent_logs_creator" json:"creator,omitempty"`
	CreatorName  string       `gorm:"type:text" json:"creatorName,omitempty"`
	Status       string       `gorm:"type:text" json:"status"`
	Stage        string       `gorm:"type:text" json:"stage,omitempty"`
	Error        string       `gorm:"type:text" json:"error,omitempty"`
	Trace        string       `gorm:"type:text" json:"trace,omitempty"`
	ElapsedMs    int64        `json:"elapsedMs"`
	CycleID      string       `gorm:"type:text" json:"cycleId,omitempty"`
	Results      []RunOutcome `gorm:"serializer:json;type:text" json:"results,omitempty"`
	SuccessCount int          `json:"successCount"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// TableName returns the database table name for AgentLog.
func (AgentLog) TableName() string {
	return "agent_logs"
}

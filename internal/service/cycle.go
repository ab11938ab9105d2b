package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/metrics"
)

// CreatorRunner runs the pipeline for one creator.
type CreatorRunner interface {
	Run(ctx context.Context, creator domain.CreatorProfile) *domain.RunOutcome
}

// Gate decides whether a creator may run.
type Gate interface {
	ShouldRun(ctx context.Context, creator domain.CreatorProfile) (bool, error)
}

// CycleRunner runs a roster of creators one after another.
type CycleRunner struct {
	roster  []domain.CreatorProfile
	runner  CreatorRunner
	gate    Gate
	audit   AuditSink
	metrics *metrics.Collector
	now     func() time.Time
}

// NewCycleRunner creates a cycle runner over a fixed roster.
// Parameters:
//   - roster: creators in the order they run.
//   - runner: pipeline invoked per creator.
//   - gate: frequency gate consulted unless a cycle is forced.
//   - audit: sink for the cycle report.
//   - m: optional metrics collector.
//
// Returns:
//   - *CycleRunner: runner instance.
func NewCycleRunner(roster []domain.CreatorProfile, runner CreatorRunner, gate Gate, audit AuditSink, m *metrics.Collector) *CycleRunner {
	return &CycleRunner{
		roster:  roster,
		runner:  runner,
		gate:    gate,
		audit:   audit,
		metrics: m,
		now:     time.Now,
	}
}

// Roster returns the configured creators in run order.
func (c *CycleRunner) Roster() []domain.CreatorProfile {
	return c.roster
}

// Creator looks up a roster entry by key.
func (c *CycleRunner) Creator(key string) (domain.CreatorProfile, bool) {
	for _, creator := range c.roster {
		if creator.Key == key {
			return creator, true
		}
	}
	return domain.CreatorProfile{}, false
}

// RunCycle runs every creator of roster the gate admits, in order, or all of
// them when forceAll is set. One creator's failure never stops the others.
// The report is appended to the audit sink.
func (c *CycleRunner) RunCycle(ctx context.Context, roster []domain.CreatorProfile, forceAll bool) *domain.CycleReport {
	report := &domain.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: c.now().UTC(),
		Results:   make([]domain.RunOutcome, 0, len(roster)),
	}
	ctx = logger.SetCycleID(ctx, report.ID)
	logger.FromContext(ctx).WithFields(logger.Fields{
		"creators": len(roster),
		"force":    forceAll,
	}).Info("Cycle started")

	for _, creator := range roster {
		if ctx.Err() != nil {
			report.Results = append(report.Results, domain.RunOutcome{
				Creator:     creator.Key,
				CreatorName: creator.Name,
				Error:       ctx.Err().Error(),
				Reason:      "canceled",
			})
			continue
		}
		report.Results = append(report.Results, c.runGated(ctx, creator, forceAll))
	}

	report.SuccessCount = domain.CountSuccesses(report.Results)
	report.Elapsed = c.now().Sub(report.StartedAt)
	c.metrics.CycleFinished(report.SuccessCount)

	logger.With(logger.Fields{"success_count": report.SuccessCount}).
		WithCount(len(report.Results)).WithDuration(report.Elapsed).
		Info(ctx, "Cycle finished")

	entry := &domain.AgentLog{
		Type:         domain.AgentLogCycle,
		Status:       "completed",
		CycleID:      report.ID,
		Results:      report.Results,
		SuccessCount: report.SuccessCount,
		ElapsedMs:    report.Elapsed.Milliseconds(),
		CreatedAt:    c.now().UTC(),
	}
	if err := c.audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to persist cycle report")
	}
	return report
}

// RunOne runs a single creator by key, bypassing the frequency gate.
func (c *CycleRunner) RunOne(ctx context.Context, key string) (*domain.RunOutcome, error) {
	creator, ok := c.Creator(key)
	if !ok {
		return nil, fmt.Errorf("creator %q: %w", key, domain.ErrNotFound)
	}
	outcome := c.invoke(ctx, creator)
	return &outcome, nil
}

func (c *CycleRunner) runGated(ctx context.Context, creator domain.CreatorProfile, forceAll bool) domain.RunOutcome {
	if !forceAll {
		allowed, err := c.gate.ShouldRun(ctx, creator)
		if err != nil {
			logger.FromContext(ctx).WithError(err).WithField(logger.FieldCreator, creator.Key).
				Error("Frequency check failed")
			return domain.RunOutcome{
				Creator:     creator.Key,
				CreatorName: creator.Name,
				Reason:      "frequency_check",
				Error:       err.Error(),
			}
		}
		if !allowed {
			return domain.RunOutcome{
				Creator:     creator.Key,
				CreatorName: creator.Name,
				Success:     true,
				Skipped:     true,
				Reason:      "too_soon",
			}
		}
	}
	return c.invoke(ctx, creator)
}

// invoke isolates one pipeline run; a panic escaping the runner becomes a
// failed outcome.
func (c *CycleRunner) invoke(ctx context.Context, creator domain.CreatorProfile) (outcome domain.RunOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.RunOutcome{
				Creator:     creator.Key,
				CreatorName: creator.Name,
				Error:       fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	result := c.runner.Run(ctx, creator)
	if result == nil {
		return domain.RunOutcome{Creator: creator.Key, CreatorName: creator.Name, Error: "no outcome"}
	}
	return *result
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/agentfeed/internal/domain"
)

type scriptedRunner struct {
	calls   []string
	fail    map[string]bool
	panicOn string
}

func (r *scriptedRunner) Run(_ context.Context, creator domain.CreatorProfile) *domain.RunOutcome {
	r.calls = append(r.calls, creator.Key)
	if creator.Key == r.panicOn {
		panic("runner exploded")
	}
	if r.fail[creator.Key] {
		return &domain.RunOutcome{Creator: creator.Key, Error: "boom", Reason: "writing"}
	}
	return &domain.RunOutcome{Creator: creator.Key, Success: true, PostID: "post-" + creator.Key}
}

type scriptedGate struct {
	deny map[string]bool
	err  map[string]bool
}

func (g *scriptedGate) ShouldRun(_ context.Context, creator domain.CreatorProfile) (bool, error) {
	if g.err[creator.Key] {
		return false, errBoom
	}
	return !g.deny[creator.Key], nil
}

func testRoster() []domain.CreatorProfile {
	return []domain.CreatorProfile{testCreator("chef"), testCreator("nova"), testCreator("sage")}
}

func TestRunCycle(t *testing.T) {
	tests := []struct {
		name        string
		runner      *scriptedRunner
		gate        *scriptedGate
		force       bool
		wantCalls   []string
		wantSuccess int
		wantSkipped int
	}{
		{
			name:        "second creator too soon",
			runner:      &scriptedRunner{},
			gate:        &scriptedGate{deny: map[string]bool{"nova": true}},
			wantCalls:   []string{"chef", "sage"},
			wantSuccess: 2,
			wantSkipped: 1,
		},
		{
			name:        "force ignores gate",
			runner:      &scriptedRunner{},
			gate:        &scriptedGate{deny: map[string]bool{"nova": true}},
			force:       true,
			wantCalls:   []string{"chef", "nova", "sage"},
			wantSuccess: 3,
		},
		{
			name:        "failure does not stop cycle",
			runner:      &scriptedRunner{fail: map[string]bool{"chef": true}},
			gate:        &scriptedGate{},
			wantCalls:   []string{"chef", "nova", "sage"},
			wantSuccess: 2,
		},
		{
			name:        "panic is isolated",
			runner:      &scriptedRunner{panicOn: "nova"},
			gate:        &scriptedGate{},
			wantCalls:   []string{"chef", "nova", "sage"},
			wantSuccess: 2,
		},
		{
			name:        "gate error fails only that creator",
			runner:      &scriptedRunner{},
			gate:        &scriptedGate{err: map[string]bool{"sage": true}},
			wantCalls:   []string{"chef", "nova"},
			wantSuccess: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &memAudit{}
			c := NewCycleRunner(testRoster(), tt.runner, tt.gate, audit, nil)

			report := c.RunCycle(context.Background(), c.Roster(), tt.force)
			if len(report.Results) != 3 {
				t.Fatalf("results = %d, want 3", len(report.Results))
			}
			if len(tt.runner.calls) != len(tt.wantCalls) {
				t.Fatalf("runner calls = %v, want %v", tt.runner.calls, tt.wantCalls)
			}
			for i, key := range tt.wantCalls {
				if tt.runner.calls[i] != key {
					t.Fatalf("runner calls = %v, want %v", tt.runner.calls, tt.wantCalls)
				}
			}
			for i, r := range report.Results {
				if r.Creator != testRoster()[i].Key {
					t.Fatalf("result %d creator = %q, want roster order", i, r.Creator)
				}
			}
			if report.SuccessCount != tt.wantSuccess {
				t.Fatalf("success count = %d, want %d", report.SuccessCount, tt.wantSuccess)
			}
			skipped := 0
			for _, r := range report.Results {
				if r.Skipped {
					skipped++
				}
			}
			if skipped != tt.wantSkipped {
				t.Fatalf("skipped = %d, want %d", skipped, tt.wantSkipped)
			}

			cycles := audit.byType(domain.AgentLogCycle)
			if len(cycles) != 1 || cycles[0].CycleID != report.ID || len(cycles[0].Results) != 3 {
				t.Fatalf("cycle audit = %+v", cycles)
			}
		})
	}
}

func TestRunCycleSkippedReason(t *testing.T) {
	c := NewCycleRunner(testRoster(), &scriptedRunner{}, &scriptedGate{deny: map[string]bool{"nova": true}}, &memAudit{}, nil)
	report := c.RunCycle(context.Background(), c.Roster(), false)

	r := report.Results[1]
	if !r.Success || !r.Skipped || r.Reason != "too_soon" {
		t.Fatalf("nova outcome = %+v", r)
	}
}

func TestRunCycleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &scriptedRunner{}
	c := NewCycleRunner(testRoster(), runner, &scriptedGate{}, &memAudit{}, nil)
	report := c.RunCycle(ctx, c.Roster(), false)

	if len(runner.calls) != 0 {
		t.Fatalf("runner calls = %v, want none", runner.calls)
	}
	for _, r := range report.Results {
		if r.Success || r.Reason != "canceled" {
			t.Fatalf("outcome = %+v", r)
		}
	}
}

func TestRunCycleAuditFailureIgnored(t *testing.T) {
	c := NewCycleRunner(testRoster(), &scriptedRunner{}, &scriptedGate{}, &memAudit{err: errBoom}, nil)
	if report := c.RunCycle(context.Background(), c.Roster(), false); report.SuccessCount != 3 {
		t.Fatalf("success count = %d", report.SuccessCount)
	}
}

func TestRunOne(t *testing.T) {
	runner := &scriptedRunner{}
	c := NewCycleRunner(testRoster(), runner, &scriptedGate{deny: map[string]bool{"nova": true}}, &memAudit{}, nil)

	outcome, err := c.RunOne(context.Background(), "nova")
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if !outcome.Success || outcome.PostID != "post-nova" {
		t.Fatalf("outcome = %+v", outcome)
	}

	if _, err := c.RunOne(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

package main

import "github.com/timmy/agentfeed/internal/domain"

// hasFailures reports whether any creator ran and failed.
func hasFailures(results []domain.RunOutcome) bool {
	for _, r := range results {
		if !r.Success {
			return true
		}
	}
	return false
}

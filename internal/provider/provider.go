// Package provider holds the adapters for the external AI services. Adapters
// never retry; retry and fallback policy belongs to the pipeline.
package provider

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
)

// Provider names used in errors, logs, and usage records.
const (
	NameGemini    = "gemini"
	NameImagen    = "imagen"
	NameVeo       = "veo"
	NameTTS       = "cloud_tts"
	NameJina      = "jina"
	NameMetadata  = "gce_metadata"
	maxErrorBytes = 300
)

// UsageRecorder persists token usage of completion calls.
type UsageRecorder interface {
	Record(ctx context.Context, usage *domain.UsageLog) error
}

func newRestyClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)
	// Every provider answers JSON; decode regardless of the declared type so
	// an unreadable 2xx body surfaces as malformed instead of an empty result.
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.ForceContentType("application/json")
		return nil
	})
	return client
}

// checkResponse converts a transport error or a non-2xx status into a
// ProviderError. A 2xx whose body resty could not decode is malformed.
func checkResponse(provider string, resp *resty.Response, err error) error {
	if err != nil {
		if resp != nil && resp.IsSuccess() {
			return malformed(provider, err.Error())
		}
		return &domain.ProviderError{Provider: provider, Message: err.Error()}
	}
	if !resp.IsSuccess() {
		msg := domain.Truncate(strings.TrimSpace(string(resp.Body())), maxErrorBytes)
		return &domain.ProviderError{Provider: provider, StatusCode: resp.StatusCode(), Message: msg}
	}
	return nil
}

func malformed(provider, msg string) error {
	return &domain.ProviderError{
		Provider:   provider,
		StatusCode: 200,
		Reason:     domain.ReasonMalformedResponse,
		Message:    msg,
	}
}

// recordUsage reports usage best-effort; failures are logged and dropped.
func recordUsage(ctx context.Context, rec UsageRecorder, usage *domain.UsageLog) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, usage); err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldProvider, usage.Provider).
			Warn("Failed to record AI usage")
	}
}

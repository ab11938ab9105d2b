package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ReasonMalformedResponse marks a 2xx provider response whose payload could
// not be parsed.
const ReasonMalformedResponse = "malformed_response"

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ProviderError is a failure reported by an external AI provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Reason     string
}

func (e *ProviderError) Error() string {
	if e.Reason != "" {
		if e.Message != "" {
			return fmt.Sprintf("%s: %s: %s", e.Provider, e.Reason, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Malformed reports whether the provider answered but the payload was unusable.
func (e *ProviderError) Malformed() bool {
	return e.Reason == ReasonMalformedResponse
}

// IsMalformed reports whether err carries a malformed_response ProviderError.
func IsMalformed(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Malformed()
}

// Media generation stages.
const (
	StageSubmit    = "submit"
	StagePoll      = "poll"
	StageExtract   = "extract"
	StageTimeout   = "timeout"
	StageDualRatio = "dual_ratio"
)

// MediaGenerationError is a failure of the media generation machinery.
type MediaGenerationError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *MediaGenerationError) Error() string {
	msg := "media generation failed at " + e.Stage
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MediaGenerationError) Unwrap() error {
	return e.Err
}

// StorageError is a failure to write, publicize, or download an object.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ValidationError reports required fields still missing after every fallback.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

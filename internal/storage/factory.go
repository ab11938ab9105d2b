package storage

import (
	"fmt"
	"strings"

	"github.com/timmy/agentfeed/internal/domain"
)

// PublicCacheControl is set on every published media object.
const PublicCacheControl = "public, max-age=31536000"

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
//
// Returns:
//   - ObjectStorage: initialized storage client implementation.
//   - error: ValidationError when the bucket or endpoint is missing, otherwise
//     any client construction error.
func NewStorage(cfg *S3Config) (ObjectStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, &domain.ValidationError{Field: "storage.bucket", Message: "is required"}
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, &domain.ValidationError{Field: "storage.endpoint", Message: "is required"}
	}
	if cfg.Type == "" {
		cfg.Type = detectStorageType(cfg.Endpoint)
	}
	// GCS and R2 only serve TLS.
	if cfg.Type == StorageTypeGCS || cfg.Type == StorageTypeR2 {
		cfg.UseSSL = true
	}

	return NewS3Storage(cfg)
}

// detectStorageType infers the provider from the endpoint host
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "storage.googleapis.com"):
		return StorageTypeGCS
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}

// ContentKey is the key of a post's primary media object.
func ContentKey(postID, ext string) string {
	return fmt.Sprintf("ai-content/%s.%s", postID, ext)
}

// VoiceKey is the key of a post's voice-over track.
func VoiceKey(postID string) string {
	return fmt.Sprintf("ai-content/%s-voice.mp3", postID)
}

// VariantKey is the key of one generated aspect-ratio variant.
func VariantKey(postID string, v domain.Variant, ext string) string {
	return fmt.Sprintf("ai-content/%s-%s.%s", postID, v, ext)
}

// UserVariantKey is the key of an outpainted variant of a user upload.
func UserVariantKey(postID string, v domain.Variant, ext string) string {
	return fmt.Sprintf("user-content/%s-%s.%s", postID, v, ext)
}

// StudioKey is the key of one studio action's output, e.g. user-ai/{job}-scene.png.
func StudioKey(jobID, suffix, ext string) string {
	return fmt.Sprintf("user-ai/%s-%s.%s", jobID, suffix, ext)
}

// VideoOutputURI is the prefix a video job writes its samples into.
func VideoOutputURI(bucket, postID string) string {
	return fmt.Sprintf("gs://%s/ai-video/%s/", bucket, postID)
}

package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/timmy/agentfeed/internal/domain"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"https://storage.googleapis.com":       "storage.googleapis.com",
		"http://localhost:9000/":               "localhost:9000",
		"abc.r2.cloudflarestorage.com/bucket/": "abc.r2.cloudflarestorage.com",
		"s3.amazonaws.com":                     "s3.amazonaws.com",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizeEndpoint(in); got != want {
				t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := map[string]StorageType{
		"storage.googleapis.com":           StorageTypeGCS,
		"abc.r2.cloudflarestorage.com":     StorageTypeR2,
		"s3.us-east-1.amazonaws.com":       StorageTypeS3,
		"localhost:9000":                   StorageTypeS3Compatible,
		"https://STORAGE.googleapis.com/x": StorageTypeGCS,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := detectStorageType(in); got != want {
				t.Fatalf("detectStorageType(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"explicit", S3Config{PublicURL: "https://cdn.example.com/", Bucket: "b"}, "https://cdn.example.com"},
		{"gcs", S3Config{Type: StorageTypeGCS, Bucket: "media"}, "https://storage.googleapis.com/media"},
		{"path style", S3Config{Type: StorageTypeS3Compatible, Bucket: "media"}, "http://localhost:9000/media"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBaseURL(&tt.cfg, "http://localhost:9000"); got != tt.want {
				t.Fatalf("publicBaseURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	const bucket = "media"
	const public = "https://storage.googleapis.com/media"

	tests := []struct {
		in      string
		wantKey string
		wantOK  bool
	}{
		{"gs://media/ai-video/p1/sample_0.mp4", "ai-video/p1/sample_0.mp4", true},
		{"s3://media/ai-content/p1.png", "ai-content/p1.png", true},
		{"gs://other/ai-video/p1.mp4", "", false},
		{"gs://media/", "", false},
		{public + "/user-content/p2.jpg", "user-content/p2.jpg", true},
		{"https://example.com/p.png", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, ok := keyFromURL(tt.in, bucket, public)
			if key != tt.wantKey || ok != tt.wantOK {
				t.Fatalf("keyFromURL(%q) = (%q, %v), want (%q, %v)", tt.in, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

func TestImageDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 9, 16))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	w, h, ok := imageDimensions(buf.Bytes(), "image/png")
	if !ok || w != 9 || h != 16 {
		t.Fatalf("imageDimensions = (%d, %d, %v)", w, h, ok)
	}

	if _, _, ok := imageDimensions([]byte("not audio"), "audio/mpeg"); ok {
		t.Fatal("non-image content type should be ignored")
	}
}

func TestNewStorageValidation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   S3Config
		field string
	}{
		{"no bucket", S3Config{Endpoint: "storage.googleapis.com"}, "storage.bucket"},
		{"no endpoint", S3Config{Bucket: "media"}, "storage.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStorage(&tt.cfg)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("NewStorage error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestObjectKeys(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{ContentKey("p1", "png"), "ai-content/p1.png"},
		{ContentKey("p1", "mp4"), "ai-content/p1.mp4"},
		{VoiceKey("p1"), "ai-content/p1-voice.mp3"},
		{VariantKey("p1", domain.VariantLandscape, "png"), "ai-content/p1-landscape.png"},
		{UserVariantKey("p2", domain.VariantPortrait, "png"), "user-content/p2-portrait.png"},
		{VideoOutputURI("media", "p3"), "gs://media/ai-video/p3/"},
		{StudioKey("ai_u1_1700", "scene", "png"), "user-ai/ai_u1_1700-scene.png"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("key = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

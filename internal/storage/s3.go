package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/timmy/agentfeed/internal/domain"
)

// StorageType defines the type of S3-compatible storage
type StorageType string

const (
	StorageTypeGCS          StorageType = "gcs"
	StorageTypeR2           StorageType = "r2"
	StorageTypeS3           StorageType = "s3"
	StorageTypeS3Compatible StorageType = "s3compatible"
)

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Type      StorageType
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	PublicURL string // Public URL prefix, e.g. a CDN; derived from endpoint when empty
}

// S3Storage implements ObjectStorage over the S3 API. GCS is reached through
// its XML interoperability endpoint with HMAC keys.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	storeType StorageType
	publicURL string
}

// NewS3Storage creates a new S3-compatible storage client
func NewS3Storage(cfg *S3Config) (*S3Storage, error) {
	endpoint := normalizeEndpoint(cfg.Endpoint)

	region := cfg.Region
	if region == "" {
		if cfg.Type == StorageTypeR2 || cfg.Type == StorageTypeGCS {
			region = "auto"
		} else {
			region = "us-east-1"
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, endpoint)

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		storeType: cfg.Type,
		publicURL: publicBaseURL(cfg, endpointURL),
	}, nil
}

func publicBaseURL(cfg *S3Config, endpointURL string) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}
	if cfg.Type == StorageTypeGCS {
		return "https://storage.googleapis.com/" + cfg.Bucket
	}
	return endpointURL + "/" + cfg.Bucket
}

// normalizeEndpoint removes protocol prefix and path from endpoint
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}

	return strings.TrimSuffix(endpoint, "/")
}

// Store uploads data with its content type, cache policy, and metadata.
// Image dimensions are added to the metadata when they can be read.
func (s *S3Storage) Store(ctx context.Context, key string, data []byte, contentType string, meta ObjectMeta) error {
	metadata := make(map[string]string, len(meta.Metadata)+2)
	for k, v := range meta.Metadata {
		metadata[k] = v
	}
	if w, h, ok := imageDimensions(data, contentType); ok {
		metadata["width"] = fmt.Sprint(w)
		metadata["height"] = fmt.Sprint(h)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      metadata,
	}
	if meta.CacheControl != "" {
		input.CacheControl = aws.String(meta.CacheControl)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return &domain.StorageError{Op: "store", Key: key, Err: err}
	}
	return nil
}

// MakePublic grants public read on key. R2 has no object ACLs; its objects
// are public through the bucket's public domain.
func (s *S3Storage) MakePublic(ctx context.Context, key string) (string, error) {
	if s.storeType != StorageTypeR2 {
		_, err := s.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			ACL:    types.ObjectCannedACLPublicRead,
		})
		if err != nil {
			return "", &domain.StorageError{Op: "make_public", Key: key, Err: err}
		}
	}
	return s.GetURL(key), nil
}

// Download reads an object fully into memory
func (s *S3Storage) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "download", Key: key, Err: err}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &domain.StorageError{Op: "download", Key: key, Err: err}
	}
	return data, nil
}

// GetURL returns the public URL for accessing an object
func (s *S3Storage) GetURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

// KeyFromURL maps gs://bucket/key, s3://bucket/key, or a public URL under
// this bucket to its key.
func (s *S3Storage) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(rawURL, s.bucket, s.publicURL)
}

func keyFromURL(rawURL, bucket, publicURL string) (string, bool) {
	if publicURL != "" && strings.HasPrefix(rawURL, publicURL+"/") {
		return strings.TrimPrefix(rawURL, publicURL+"/"), true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "gs", "s3":
		if u.Host != bucket {
			return "", false
		}
		key := strings.TrimPrefix(u.Path, "/")
		return key, key != ""
	default:
		return "", false
	}
}

// Delete deletes an object from storage
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &domain.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists checks if an object exists in storage
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) || strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

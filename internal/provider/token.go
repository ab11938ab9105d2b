package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/agentfeed/internal/domain"
)

// TokenSource yields bearer tokens for Vertex AI and Cloud TTS. Callers ask
// for a token on every request so that expiry mid-operation is handled.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token, for local runs and tests.
type StaticTokenSource string

// Token returns the configured token.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("no access token configured")
	}
	return string(s), nil
}

// MetadataTokenSource fetches service-account tokens from the GCE metadata
// server and caches them until shortly before expiry.
type MetadataTokenSource struct {
	client  *resty.Client
	baseURL string
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// expirySkew refreshes tokens this long before they expire.
const expirySkew = 60 * time.Second

// NewMetadataTokenSource creates a token source for the given metadata host.
func NewMetadataTokenSource(baseURL string) *MetadataTokenSource {
	client := resty.New()
	client.SetHeader("Metadata-Flavor", "Google")
	client.SetTimeout(10 * time.Second)
	return &MetadataTokenSource{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

type metadataToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns a cached token or fetches a fresh one.
func (s *MetadataTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}

	var tok metadataToken
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&tok).
		Get(s.baseURL + "/computeMetadata/v1/instance/service-accounts/default/token")
	if err := checkResponse(NameMetadata, resp, err); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", &domain.ProviderError{Provider: NameMetadata, StatusCode: resp.StatusCode(), Reason: domain.ReasonMalformedResponse}
	}

	s.token = tok.AccessToken
	s.expires = s.now().Add(time.Duration(tok.ExpiresIn)*time.Second - expirySkew)
	return s.token, nil
}

// NewTokenSource prefers a static token when one is configured.
func NewTokenSource(staticToken, metadataURL string) TokenSource {
	if staticToken != "" {
		return StaticTokenSource(staticToken)
	}
	return NewMetadataTokenSource(metadataURL)
}

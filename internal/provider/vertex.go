package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// VertexConfig locates the Vertex AI endpoints for a project.
type VertexConfig struct {
	ProjectID string
	Region    string
	BaseURL   string // overrides https://{region}-aiplatform.googleapis.com/v1
	Timeout   time.Duration
}

func (c *VertexConfig) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", c.Region)
}

func (c *VertexConfig) modelURL(model, method string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL(), c.ProjectID, c.Region, model, method)
}

// authorized builds a request carrying a freshly acquired bearer token.
func authorized(ctx context.Context, client *resty.Client, tokens TokenSource, provider string) (*resty.Request, error) {
	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire access token: %w", provider, err)
	}
	return client.R().SetContext(ctx).SetAuthToken(token), nil
}

package remote

import (
	"context"
	"fmt"
	"net/http"

	"studio/internal/domain"
)

// GenerateParams are the inputs to the direct synchronous generation call.
type GenerateParams struct {
	Prompt      string
	AnchorURLs  []string
	EngineID    string
	AspectRatio string
	Quality     string
}

// DirectClient calls the provider's synchronous generation endpoint. There is
// no server-side job object on this path: the call either returns an image
// URL or fails.
type DirectClient struct {
	apiClient
}

// NewDirectClient constructs a direct provider client.
func NewDirectClient(opts Options) (*DirectClient, error) {
	c, err := newAPIClient(opts)
	if err != nil {
		return nil, err
	}
	return &DirectClient{apiClient: c}, nil
}

type directGenerateRequest struct {
	Prompt      string   `json:"prompt"`
	AnchorURLs  []string `json:"anchor_urls,omitempty"`
	Engine      string   `json:"engine"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	Quality     string   `json:"quality,omitempty"`
}

type directGenerateResponse struct {
	ImageURL string `json:"image_url"`
}

// Generate performs one synchronous generation and returns the image URL.
// An empty URL from the provider counts as a failure.
func (c *DirectClient) Generate(ctx context.Context, p GenerateParams) (string, error) {
	body := directGenerateRequest{
		Prompt:      p.Prompt,
		AnchorURLs:  p.AnchorURLs,
		Engine:      p.EngineID,
		AspectRatio: p.AspectRatio,
		Quality:     p.Quality,
	}
	var resp directGenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/images/generations", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("direct generate: %w: provider returned no image", domain.ErrProviderFailure)
	}
	return resp.ImageURL, nil
}

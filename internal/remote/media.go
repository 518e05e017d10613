package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadedMedia is the durable identity the media store assigns an upload.
type UploadedMedia struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	RemoteMediaID string `json:"media_id"`
}

// MediaClient uploads source assets to the remote media store.
type MediaClient struct {
	apiClient
}

// NewMediaClient constructs a media store client.
func NewMediaClient(opts Options) (*MediaClient, error) {
	c, err := newAPIClient(opts)
	if err != nil {
		return nil, err
	}
	return &MediaClient{apiClient: c}, nil
}

// Upload sends the file as multipart form data and returns the stored
// media's durable id and url.
func (c *MediaClient) Upload(ctx context.Context, filename, mimeType string, data []byte) (UploadedMedia, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: write upload form: %w", err)
	}
	if mimeType != "" {
		if err := form.WriteField("mime", mimeType); err != nil {
			return UploadedMedia{}, fmt.Errorf("remote: write upload form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/media", &buf)
	if err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadedMedia{}, c.apiError(http.MethodPost, "/v1/media", resp.StatusCode, body)
	}

	var media UploadedMedia
	if err := json.Unmarshal(body, &media); err != nil {
		return UploadedMedia{}, fmt.Errorf("remote: decode upload response: %w", err)
	}
	if media.URL == "" {
		return UploadedMedia{}, fmt.Errorf("remote: media store returned no url")
	}
	return media, nil
}

// maxDownloadBytes bounds a single result download.
const maxDownloadBytes = 32 << 20

// Download fetches a stored result by its absolute URL. Result URLs point at
// the platform CDN, so the request goes to the URL as given rather than the
// configured base.
func (c *MediaClient) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("remote: build download request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("remote: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("remote: download %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("remote: read download: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"studio/internal/domain"
)

// SubmitParams describe a backend generation job.
type SubmitParams struct {
	Type      string
	Prompt    string
	AnchorRef string
	EngineID  string
	Width     int
	Height    int
}

// JobSnapshot is one observation of a backend job's state.
type JobSnapshot struct {
	Status       domain.JobStatus
	ResultImages []string
}

// ListParams filter the job history listing.
type ListParams struct {
	Limit    int
	Category string
}

// JobRecord is one row from the remote job registry.
type JobRecord struct {
	ID           string
	Status       domain.JobStatus
	ResultImages []string
	Prompt       string
	CreditsUsed  int
	CreatedAt    time.Time
}

// JobClient talks to the backend job API: submission, status polling and the
// history listing.
type JobClient struct {
	apiClient
}

// NewJobClient constructs a job API client.
func NewJobClient(opts Options) (*JobClient, error) {
	c, err := newAPIClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobClient{apiClient: c}, nil
}

type submitJobRequest struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
	Anchor string `json:"anchor,omitempty"`
	Engine string `json:"engine"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type submitJobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// Submit enqueues a backend job and returns its id. A response with
// success=false is a rejection, not a transport error.
func (c *JobClient) Submit(ctx context.Context, p SubmitParams) (string, error) {
	body := submitJobRequest{
		Type:   p.Type,
		Prompt: p.Prompt,
		Anchor: p.AnchorRef,
		Engine: p.EngineID,
		Width:  p.Width,
		Height: p.Height,
	}
	var resp submitJobResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/jobs", nil, body, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.JobID == "" {
		if resp.Message != "" {
			return "", fmt.Errorf("submit job: %w: %s", domain.ErrJobRejected, resp.Message)
		}
		return "", fmt.Errorf("submit job: %w", domain.ErrJobRejected)
	}
	return resp.JobID, nil
}

type jobStatusResponse struct {
	Status       string   `json:"status"`
	ResultImages []string `json:"result_images"`
}

// Status fetches the current state of a job.
func (c *JobClient) Status(ctx context.Context, jobID string) (JobSnapshot, error) {
	var resp jobStatusResponse
	path := "/v1/jobs/" + url.PathEscape(jobID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return JobSnapshot{}, err
	}
	return JobSnapshot{
		Status:       domain.ParseJobStatus(resp.Status),
		ResultImages: resp.ResultImages,
	}, nil
}

type listJobsResponse struct {
	Items []struct {
		ID           string    `json:"id"`
		Status       string    `json:"status"`
		ResultImages []string  `json:"result_images"`
		Prompt       string    `json:"prompt"`
		CreditsUsed  int       `json:"credits_used"`
		CreatedAt    time.Time `json:"created_at"`
	} `json:"items"`
}

// List returns the most recent jobs from the remote registry.
func (c *JobClient) List(ctx context.Context, p ListParams) ([]JobRecord, error) {
	query := url.Values{}
	if p.Limit > 0 {
		query.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Category != "" {
		query.Set("category", p.Category)
	}
	var resp listJobsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/jobs", query, nil, &resp); err != nil {
		return nil, err
	}
	records := make([]JobRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		records = append(records, JobRecord{
			ID:           item.ID,
			Status:       domain.ParseJobStatus(item.Status),
			ResultImages: item.ResultImages,
			Prompt:       item.Prompt,
			CreditsUsed:  item.CreditsUsed,
			CreatedAt:    item.CreatedAt,
		})
	}
	return records, nil
}

package remote

import (
	"context"
	"net/http"
)

// SessionClient reads session-scoped account state from the platform.
type SessionClient struct {
	apiClient
}

// NewSessionClient constructs a session client.
func NewSessionClient(opts Options) (*SessionClient, error) {
	c, err := newAPIClient(opts)
	if err != nil {
		return nil, err
	}
	return &SessionClient{apiClient: c}, nil
}

type balanceResponse struct {
	Credits int `json:"credits"`
}

// RefreshBalance fetches the authoritative credit balance.
func (c *SessionClient) RefreshBalance(ctx context.Context) (int, error) {
	var resp balanceResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/session/balance", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Credits, nil
}

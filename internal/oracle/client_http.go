package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// HTTPClient talks to one identity oracle instance over its REST surface.
// 404 responses map to sentinel.ErrNotFound; 5xx map to sentinel.ErrUnavailable
// so the caller can distinguish a miss from an outage.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) IsHuman(ctx context.Context, account domain.Account) (bool, error) {
	var out struct {
		Human bool `json:"human"`
	}
	err := c.get(ctx, fmt.Sprintf("%s/humans/%s", c.baseURL, account), &out)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out.Human, nil
}

func (c *HTTPClient) HumanityOf(ctx context.Context, account domain.Account) (domain.CredentialID, error) {
	var out struct {
		CredentialID domain.CredentialID `json:"credential_id"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/humans/%s/credential", c.baseURL, account), &out); err != nil {
		return domain.CredentialID{}, err
	}
	return out.CredentialID, nil
}

func (c *HTTPClient) BoundTo(ctx context.Context, id domain.CredentialID) (domain.Account, error) {
	var out struct {
		Account domain.Account `json:"account"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/credentials/%s/owner", c.baseURL, id), &out); err != nil {
		return domain.Account{}, err
	}
	return out.Account, nil
}

func (c *HTTPClient) CredentialData(ctx context.Context, id domain.CredentialID) (domain.Credential, error) {
	var out struct {
		CredentialID domain.CredentialID `json:"credential_id"`
		Owner        domain.Account      `json:"owner"`
		ExpiresAt    int64               `json:"expires_at"`
	}
	if err := c.get(ctx, fmt.Sprintf("%s/credentials/%s", c.baseURL, id), &out); err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential{
		ID:        out.CredentialID,
		Owner:     out.Owner,
		ExpiresAt: time.Unix(out.ExpiresAt, 0).UTC(),
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build oracle request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("oracle request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("oracle returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("oracle returned unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode oracle response: %w", err)
	}
	return nil
}

package links

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// HTTPClient talks to the external link registry's REST surface.
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

// Link is intentionally unsupported over HTTP: assertions are created by the
// asserting account itself, not by trustbind.
func (c *HTTPClient) Link(context.Context, domain.Account, domain.Account) error {
	return fmt.Errorf("link registry is read-only from trustbind")
}

func (c *HTTPClient) HasAsserted(ctx context.Context, from, to domain.Account) (bool, error) {
	var out struct {
		Asserted bool `json:"asserted"`
	}
	path := fmt.Sprintf("%s/links/%s/to/%s", c.baseURL, from, to)
	if err := c.get(ctx, path, &out); err != nil {
		return false, err
	}
	return out.Asserted, nil
}

func (c *HTTPClient) IsLinkEstablished(ctx context.Context, a, b domain.Account) (bool, error) {
	var out struct {
		Established bool `json:"established"`
	}
	path := fmt.Sprintf("%s/links/established?a=%s&b=%s", c.baseURL, url.QueryEscape(a.String()), url.QueryEscape(b.String()))
	if err := c.get(ctx, path, &out); err != nil {
		return false, err
	}
	return out.Established, nil
}

func (c *HTTPClient) Outgoing(ctx context.Context, from, cursor domain.Account, limit int) ([]domain.Account, domain.Account, error) {
	var out struct {
		Partners []domain.Account `json:"partners"`
		Next     string           `json:"next,omitempty"`
	}
	path := fmt.Sprintf("%s/links/%s/out?limit=%s", c.baseURL, from, strconv.Itoa(limit))
	if !cursor.IsZero() {
		path += "&cursor=" + url.QueryEscape(cursor.String())
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, domain.Account{}, err
	}
	var next domain.Account
	if out.Next != "" {
		parsed, err := domain.ParseAccount(out.Next)
		if err != nil {
			return nil, domain.Account{}, fmt.Errorf("registry returned bad cursor: %w", err)
		}
		next = parsed
	}
	return out.Partners, next, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("registry request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("registry returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry returned unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}

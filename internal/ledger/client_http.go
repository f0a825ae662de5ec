package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trustbind/internal/platform/config"
	"trustbind/pkg/domain"
	"trustbind/pkg/platform/sentinel"
)

// HTTPClient submits trust mutations to the group ledger, authenticating each
// request with a short-lived service JWT. Mutations under one signing identity
// are serialized: the ledger sequences submissions per signer, and overlapping
// in-flight writes would collide on sequence numbers.
type HTTPClient struct {
	baseURL    string
	group      domain.Account
	signerID   string
	signingKey []byte
	client     *http.Client

	// submitMu allows at most one in-flight mutating call per signer.
	submitMu sync.Mutex
}

func NewHTTPClient(cfg config.LedgerConfig, group domain.Account) *HTTPClient {
	return &HTTPClient{
		baseURL:    cfg.URL,
		group:      group,
		signerID:   cfg.SignerID,
		signingKey: []byte(cfg.SigningKey),
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) SetTrustBatch(ctx context.Context, members []domain.Account, expiry time.Time) error {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	var expiryUnix int64
	if !expiry.IsZero() {
		expiryUnix = expiry.Unix()
	}
	payload, err := json.Marshal(struct {
		Members []domain.Account `json:"members"`
		Expiry  int64            `json:"expiry"`
	}{Members: members, Expiry: expiryUnix})
	if err != nil {
		return fmt.Errorf("encode trust batch: %w", err)
	}

	url := fmt.Sprintf("%s/groups/%s/trust", c.baseURL, c.group)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.signToken()
	if err != nil {
		return fmt.Errorf("sign ledger token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("ledger returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent:
		return fmt.Errorf("ledger rejected trust batch with status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) IsTrusted(ctx context.Context, member domain.Account) (bool, error) {
	var out struct {
		Trusted bool `json:"trusted"`
	}
	url := fmt.Sprintf("%s/groups/%s/trust/%s", c.baseURL, c.group, member)
	if err := c.get(ctx, url, &out); err != nil {
		return false, err
	}
	return out.Trusted, nil
}

func (c *HTTPClient) TrustExpiry(ctx context.Context, member domain.Account) (time.Time, error) {
	var out struct {
		Expiry int64 `json:"expiry"`
	}
	url := fmt.Sprintf("%s/groups/%s/trust/%s", c.baseURL, c.group, member)
	if err := c.get(ctx, url, &out); err != nil {
		return time.Time{}, err
	}
	if out.Expiry == 0 {
		return time.Time{}, nil
	}
	return time.Unix(out.Expiry, 0).UTC(), nil
}

// signToken mints a short-lived HS256 token identifying this service to the
// ledger gateway. Permissionless correctness lives in the ledger's invariant
// checks; the token only ties submissions to a signer for sequencing.
func (c *HTTPClient) signToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   c.signerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build ledger request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("ledger returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("ledger returned unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ledger response: %w", err)
	}
	return nil
}

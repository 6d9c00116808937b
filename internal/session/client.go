package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"funnelgate/pkg/platform/sentinel"
)

// Client calls the upstream session-minting endpoint.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewClient builds a mint client. The timeout on httpClient is the hard
// 5-second budget for the mint call; the caller never retries within a
// page load.
func NewClient(baseURL, authToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, authToken: authToken, http: httpClient}
}

type mintRequest struct {
	PageURL string `json:"pageUrl"`
}

type mintResponse struct {
	Data []struct {
		AlysonSessionID string `json:"alyson_session_id"`
	} `json:"data"`
}

// Mint requests a fresh session token for the given page URL. A missing
// token in an otherwise successful response is a malformed response, not a
// token.
func (c *Client) Mint(ctx context.Context, pageURL string) (string, error) {
	body, err := json.Marshal(mintRequest{PageURL: pageURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/alyson-session/params", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-auth-token", c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("session mint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session mint status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded mintResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("session mint decode: %w", sentinel.ErrMalformed)
	}
	if len(decoded.Data) == 0 || decoded.Data[0].AlysonSessionID == "" {
		return "", fmt.Errorf("session mint token missing: %w", sentinel.ErrMalformed)
	}
	return decoded.Data[0].AlysonSessionID, nil
}

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"funnelgate/pkg/platform/sentinel"
)

// Client calls the landing-page validation and partial-match endpoints.
// Both share a response shape: an optional data array whose first element
// carries the matched system's index name and the contact fields.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

type fields struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

type lookupEntry struct {
	Index  string `json:"_index"`
	Source fields `json:"_source"`
}

type lookupResponse struct {
	Data    []lookupEntry `json:"data"`
	Error   bool          `json:"error"`
	Message string        `json:"message"`
}

// Validate posts the page URL to the landing-page validation endpoint.
// Zero matches returns (nil, nil): no data is not an error.
func (c *Client) Validate(ctx context.Context, pageURL string) (*lookupEntry, error) {
	body, err := json.Marshal(map[string]string{"url": pageURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/checkout/prepop/v2/validate/landing-page", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("landing-page validation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("landing-page validation status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("landing-page validation decode: %w", sentinel.ErrMalformed)
	}
	if len(decoded.Data) == 0 {
		return nil, nil
	}
	return &decoded.Data[0], nil
}

// PartialMatch issues the supplementary lookup. Only non-empty search keys
// are sent; the caller guarantees at least one is valid before calling.
// The backend's "provide at least one search parameter" complaint and zero
// matches both return (nil, nil).
func (c *Client) PartialMatch(ctx context.Context, address, name, phone, email string) (*lookupEntry, error) {
	q := url.Values{}
	for key, val := range map[string]string{
		"address": address,
		"name":    name,
		"phone":   phone,
		"email":   email,
	} {
		if val != "" {
			q.Set(key, val)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/checkout/v3/search/partial-match?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partial match: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("partial match status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("partial match decode: %w", sentinel.ErrMalformed)
	}
	if decoded.Error && strings.Contains(decoded.Message, "Please provide at least one search parameter") {
		return nil, nil
	}
	if len(decoded.Data) == 0 {
		return nil, nil
	}
	return &decoded.Data[0], nil
}

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"funnelgate/pkg/usaddr"
)

// geocodeTypes is the feature filter sent to the provider; it matches the
// granularity the funnel can prefill (street address down to neighborhood).
const geocodeTypes = "place,locality,neighborhood,address"

// Client performs reverse geocoding against the external mapping provider.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}
}

type geocodeResponse struct {
	Features []struct {
		PlaceName string `json:"place_name"`
	} `json:"features"`
}

// ReverseGeocode resolves coordinates to a place name with the trailing
// country suffix stripped. Zero features is ("", nil): a valid "no match",
// not an error.
func (c *Client) ReverseGeocode(ctx context.Context, lon, lat float64) (string, error) {
	endpoint := fmt.Sprintf("%s/%f,%f.json?%s", c.baseURL, lon, lat, url.Values{
		"access_token": {c.token},
		"types":        {geocodeTypes},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode status %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("reverse geocode decode: %w", err)
	}
	if len(decoded.Features) == 0 {
		return "", nil
	}
	return usaddr.StripCountrySuffix(decoded.Features[0].PlaceName), nil
}

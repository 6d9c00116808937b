// Package session obtains and reuses the funnel's opaque session token. A
// visitor keeps one token per tab; returning within the cache TTL reuses it
// with no network call, and losing the mint call entirely is non-fatal —
// the rest of the funnel carries on with an empty session id.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"funnelgate/internal/platform/metrics"
)

// Query parameters re-asserted onto the canonical page URL on every
// resolution. The dispatch flag and checkout id are fixed contract values
// expected by the downstream checkout.
const (
	dispatchFlag = "1"
	checkoutID   = "28"
)

// Resolution is the outcome of one session resolution.
type Resolution struct {
	Token        string
	Reused       bool
	CanonicalURL string
}

// Service implements mint-or-reuse with at most one mint attempt per call.
type Service struct {
	store   Store
	client  *Client
	ttl     time.Duration
	budget  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, client *Client, ttl, budget time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, client: client, ttl: ttl, budget: budget, logger: logger, metrics: m}
}

// Resolve returns the visitor's session token, minting one only when the
// cache has none. Mint failure is absorbed: the returned Resolution carries
// an empty token and the page URL unchanged. Never returns an error to the
// orchestration path.
func (s *Service) Resolve(ctx context.Context, vid, pageURL string) Resolution {
	if token, err := s.store.Get(ctx, vid); err == nil {
		if s.metrics != nil {
			s.metrics.SessionsReused.Inc()
		}
		return Resolution{Token: token, Reused: true, CanonicalURL: CanonicalURL(pageURL, token)}
	}

	mintCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	token, err := s.client.Mint(mintCtx, pageURL)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SessionMintFails.Inc()
		}
		s.logger.WarnContext(ctx, "session mint failed, continuing without token",
			"error", err,
		)
		return Resolution{CanonicalURL: pageURL}
	}

	if err := s.store.Set(ctx, vid, token, s.ttl); err != nil {
		// Cache write failure costs a re-mint next load, nothing else.
		s.logger.WarnContext(ctx, "session cache write failed", "error", err)
	}
	if s.metrics != nil {
		s.metrics.SessionsMinted.Inc()
	}
	return Resolution{Token: token, CanonicalURL: CanonicalURL(pageURL, token)}
}

// Current returns the cached token for the visitor, or "".
func (s *Service) Current(ctx context.Context, vid string) string {
	token, err := s.store.Get(ctx, vid)
	if err != nil {
		return ""
	}
	return token
}

// CanonicalURL rewrites the page URL with the standard tracking parameters:
// utm_content and sessionId carry the token, plus the fixed dispatch flag
// and checkout id. The fragment is preserved.
func CanonicalURL(pageURL, token string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	q := parsed.Query()
	q.Set("utm_content", token)
	q.Set("sessionId", token)
	q.Set("d", dispatchFlag)
	q.Set("checkoutId", checkoutID)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

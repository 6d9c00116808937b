// Package identity resolves a visitor's contact bundle. The primary lookup
// validates the landing-page URL against the checkout backend; when the
// result is incomplete, or the URL carries placeholder parameters, a
// supplementary partial-match lookup fills the gaps. Failures never reach
// the orchestration path — the worst case is a record rebuilt from the raw
// URL parameters.
package identity

import (
	"context"
	"log/slog"
	"net/url"

	"funnelgate/internal/geo"
	"funnelgate/internal/platform/metrics"
	"funnelgate/pkg/prepop"
)

// CheckedParams are the URL parameters whose presence with an invalid value
// triggers the supplementary lookup. The analytics payload reports the same
// list as invalid_fields so the two views can never drift apart.
var CheckedParams = []string{
	"fname", "lname", "name", "email", "phone",
	"street", "city", "state", "zip", "address",
}

// Service orchestrates the primary and supplementary lookups.
type Service struct {
	client  *Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(client *Client, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{client: client, logger: logger, metrics: m}
}

// Resolve produces the identity record for a page load. geoState must be
// terminal before this is called: a granted, geocoded address overrides the
// URL's address parameter in the validation request.
func (s *Service) Resolve(ctx context.Context, pageURL string, geoState geo.State) Record {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		s.logger.WarnContext(ctx, "unparseable page URL", "error", err)
		return Record{}
	}

	urlToSend := pageURL
	if geoState.HasAddress() {
		q := parsed.Query()
		q.Set("address", geoState.Address)
		withGeo := *parsed
		withGeo.RawQuery = q.Encode()
		urlToSend = withGeo.String()
	}

	entry, err := s.client.Validate(ctx, urlToSend)
	if err != nil {
		s.countLookup("error")
		s.logger.WarnContext(ctx, "landing-page validation failed, using raw URL parameters",
			"error", err,
		)
		return s.fallbackFromURL(parsed.Query())
	}

	primary := Record{APIValidationOK: true}
	if entry != nil {
		primary = recordFromFields(entry.Source)
		primary.Source = sourceFromIndex(entry.Index)
		primary.APIValidationOK = true
		s.countLookup("hit")
	} else {
		s.countLookup("empty")
	}

	params := parsed.Query()
	if !s.needsSupplement(primary, params) {
		return primary
	}

	// Search keys go through the validator: a placeholder is no key at all.
	address := prepop.Clean(params.Get("address"))
	if address == "" && geoState.HasAddress() {
		address = geoState.Address
	}
	name := pick(prepop.Clean(params.Get("name")), primary.Name)
	phone := pick(prepop.Clean(params.Get("phone")), primary.Phone)
	email := pick(prepop.Clean(params.Get("email")), primary.Email)

	// The partial-match backend requires at least one real search key.
	if !prepop.AnyValid(address, name, phone, email) {
		return primary
	}

	supplement, err := s.client.PartialMatch(ctx, address, name, phone, email)
	if err != nil {
		s.countPartial("error")
		s.logger.WarnContext(ctx, "partial match failed, keeping primary record", "error", err)
		return primary
	}
	if supplement == nil {
		s.countPartial("empty")
		return primary
	}

	s.countPartial("hit")
	return Merge(primary, recordFromFields(supplement.Source))
}

// needsSupplement applies the three trigger conditions: an incomplete
// primary record, a present-but-invalid URL parameter, or a geolocated
// address that still left the record incomplete (subsumed by the first).
func (s *Service) needsSupplement(primary Record, params url.Values) bool {
	if !primary.Complete() {
		return true
	}
	for _, p := range CheckedParams {
		if params.Has(p) && !prepop.IsValidParam(params.Get(p)) {
			return true
		}
	}
	return false
}

// fallbackFromURL builds a record straight from the URL's parameters when
// the primary lookup is unreachable. Each field passes through the
// validator; the record reports validation as failed.
func (s *Service) fallbackFromURL(params url.Values) Record {
	return Record{
		Name:    prepop.Clean(params.Get("name")),
		Phone:   prepop.Clean(params.Get("phone")),
		Email:   prepop.Clean(params.Get("email")),
		Address: prepop.Clean(params.Get("address")),
		Street:  prepop.Clean(params.Get("street")),
		City:    prepop.Clean(params.Get("city")),
		State:   prepop.Clean(params.Get("state")),
		Zip:     prepop.Clean(params.Get("zip")),
	}
}

func (s *Service) countLookup(outcome string) {
	if s.metrics != nil {
		s.metrics.IdentityLookups.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countPartial(outcome string) {
	if s.metrics != nil {
		s.metrics.PartialMatches.WithLabelValues(outcome).Inc()
	}
}

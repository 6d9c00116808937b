// Package geo maps the browser's geolocation outcome onto the funnel's
// terminal state machine and reverse-geocodes granted coordinates into a
// street address. Resolution always terminates in some state; a geocoding
// failure degrades the address, never the permission outcome.
package geo

import (
	"context"
	"log/slog"
	"time"

	"funnelgate/internal/platform/metrics"
)

// Service resolves a BrowserReport into a terminal State.
type Service struct {
	client  *Client
	budget  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(client *Client, budget time.Duration, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{client: client, budget: budget, logger: logger, metrics: m}
}

// Resolve classifies the report and, on grant, attempts the reverse-geocode
// hop within the budget. Every path returns a terminal, triggered state.
func (s *Service) Resolve(ctx context.Context, report BrowserReport) State {
	if !report.Supported {
		return State{Permission: PermissionNotSupported, Triggered: true}
	}

	switch Permission(report.Permission) {
	case PermissionDenied:
		return State{Permission: PermissionDenied, Triggered: true}
	case PermissionUnavailable:
		return State{Permission: PermissionUnavailable, Triggered: true}
	case PermissionTimeout:
		return State{Permission: PermissionTimeout, Triggered: true}
	case PermissionUserDisabled:
		return State{Permission: PermissionUserDisabled, Triggered: true}
	case PermissionGranted:
		return s.resolveGranted(ctx, report)
	default:
		// Unknown report values read as the browser never exposing the API.
		return State{Permission: PermissionUnavailable, Triggered: true}
	}
}

func (s *Service) resolveGranted(ctx context.Context, report BrowserReport) State {
	state := State{
		Permission: PermissionGranted,
		Triggered:  true,
		Lat:        report.Lat,
		Lon:        report.Lon,
	}

	geocodeCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	start := time.Now()
	address, err := s.client.ReverseGeocode(geocodeCtx, report.Lon, report.Lat)
	if s.metrics != nil {
		s.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		// Permission was granted; only the address is lost.
		s.logger.WarnContext(ctx, "reverse geocoding failed", "error", err)
		return state
	}

	state.Address = address
	return state
}

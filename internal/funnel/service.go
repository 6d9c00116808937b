// Package funnel sequences the landing-page orchestration: session
// mint/reuse and geolocation run as independent early legs, geolocation
// must be terminal before identity resolution, the page-view event goes
// out before any funnel-start event, and funnel-start events only fire
// when a real address exists. No upstream failure is allowed to reach the
// visitor.
package funnel

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"funnelgate/internal/analytics"
	"funnelgate/internal/geo"
	"funnelgate/internal/identity"
	"funnelgate/internal/platform/metrics"
	"funnelgate/internal/redirect"
	"funnelgate/internal/session"
	dErrors "funnelgate/pkg/domain-errors"
	"funnelgate/pkg/prepop"
)

// identityResolver is the slice of the identity service the orchestrator
// needs; tests substitute a fake.
type identityResolver interface {
	Resolve(ctx context.Context, pageURL string, geoState geo.State) identity.Record
}

// handoffTTL bounds how long a mid-redirect record survives. The visitor
// lands on the quiz within seconds; minutes of slack cover slow devices.
const handoffTTL = 10 * time.Minute

// Service is the orchestrator.
type Service struct {
	sessions *session.Service
	geo      *geo.Service
	identity identityResolver
	events   *analytics.Publisher
	composer *redirect.Composer
	handoffs HandoffStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(
	sessions *session.Service,
	geoSvc *geo.Service,
	identitySvc identityResolver,
	events *analytics.Publisher,
	composer *redirect.Composer,
	handoffs HandoffStore,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		sessions: sessions,
		geo:      geoSvc,
		identity: identitySvc,
		events:   events,
		composer: composer,
		handoffs: handoffs,
		logger:   logger,
		metrics:  m,
	}
}

// Landing runs the per-page-load sequence and always produces a usable
// response.
func (s *Service) Landing(ctx context.Context, req LandingRequest) LandingResponse {
	var (
		sessionRes session.Resolution
		geoState   geo.State
	)

	// The two early legs are independent; both absorb their own failures.
	g, legCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessionRes = s.sessions.Resolve(legCtx, req.VID, req.Page.URL)
		return nil
	})
	g.Go(func() error {
		geoState = s.geo.Resolve(legCtx, req.Geolocation)
		return nil
	})
	// Both legs terminal: identity may now read geolocation state.
	_ = g.Wait()

	record := s.identity.Resolve(ctx, sessionRes.CanonicalURL, geoState)

	page := req.Page
	page.URL = sessionRes.CanonicalURL

	payload := analytics.BuildPayload(page, sessionRes.Token, geoState, record, nil)
	s.events.Emit(ctx, analytics.EventPageView, sessionRes.Token, payload)

	started := s.shouldStartFunnel(sessionRes.CanonicalURL, record)
	if started {
		stepExtra := map[string]any{
			"address_chosen":         "default_params",
			"api_validation_success": record.APIValidationOK,
		}
		stepPayload := analytics.BuildPayload(page, sessionRes.Token, geoState, record, stepExtra)
		s.events.Emit(ctx, analytics.EventQuizStart, sessionRes.Token, stepPayload)
		s.events.Emit(ctx, analytics.EventPartialQuizSubmit, sessionRes.Token, stepPayload)
	}

	return LandingResponse{
		SessionID:     sessionRes.Token,
		CanonicalURL:  sessionRes.CanonicalURL,
		Geolocation:   geoView(geoState),
		Identity:      identityView(record),
		FunnelStarted: started,
	}
}

// shouldStartFunnel gates the funnel-start events: a valid address in the
// URL, or one resolved from the backend, is required.
func (s *Service) shouldStartFunnel(pageURL string, record identity.Record) bool {
	if record.Address != "" || record.Street != "" {
		return true
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return prepop.IsValidParam(parsed.Query().Get("address"))
}

// Redirect composes the outbound quiz URL, records the mid-redirect
// handoff and emits the funnel-step event. The caller performs the actual
// navigation after its loading transition.
func (s *Service) Redirect(ctx context.Context, req RedirectRequest) (RedirectResponse, error) {
	method := redirect.Method(req.Method)
	switch method {
	case redirect.MethodManual, redirect.MethodDropdown, redirect.MethodPrepopulated:
	default:
		return RedirectResponse{}, dErrors.New(dErrors.CodeBadRequest, "unknown address method")
	}
	if req.Chosen.PlaceName == "" && req.Original.Street == "" {
		return RedirectResponse{}, dErrors.New(dErrors.CodeBadRequest, "no address to redirect with")
	}

	target, err := s.composer.Compose(req.Chosen, method, req.Original, req.Contact)
	if err != nil {
		return RedirectResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "compose redirect")
	}
	address := target.Query().Get("address")

	handoff := Handoff{
		Address:   address,
		Name:      prepop.Clean(req.Contact.Name),
		Email:     prepop.Clean(req.Contact.Email),
		Phone:     prepop.Clean(req.Contact.Phone),
		Loading:   true,
		Method:    req.Method,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := s.handoffs.Set(ctx, req.VID, handoff, handoffTTL); err != nil {
		// Autofill degrades to URL parameters only.
		s.logger.WarnContext(ctx, "handoff record write failed", "error", err)
	}

	sessionID := s.sessions.Current(ctx, req.VID)
	payload := analytics.BuildPayload(req.Page, sessionID, geo.Unset(), identity.Record{}, map[string]any{
		"address_chosen": req.Method,
		"quiz_address":   address,
	})
	s.events.Emit(ctx, analytics.EventQuizStart, sessionID, payload)

	if s.metrics != nil {
		s.metrics.RedirectsByMethod.WithLabelValues(req.Method).Inc()
	}

	return RedirectResponse{RedirectURL: target.String(), Address: address}, nil
}

// Autofill resolves the quiz-side prefill bundle. URL parameters win over
// the cached handoff record; the record is consumed on read.
func (s *Service) Autofill(ctx context.Context, vid string, params url.Values) AutofillData {
	data := AutofillData{
		Address: params.Get("address"),
		Name:    decodeB64(params.Get("n")),
		Email:   decodeB64(params.Get("e")),
		Phone:   decodeB64(params.Get("p")),
	}

	cached, err := s.handoffs.Take(ctx, vid)
	if err != nil {
		return data
	}
	if data.Address == "" {
		data.Address = cached.Address
	}
	if data.Name == "" {
		data.Name = cached.Name
	}
	if data.Email == "" {
		data.Email = cached.Email
	}
	if data.Phone == "" {
		data.Phone = cached.Phone
	}
	return data
}

// decodeB64 decodes a Base64 query value, treating garbage as absent.
func decodeB64(encoded string) string {
	if encoded == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(raw)
}

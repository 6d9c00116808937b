package funnel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"funnelgate/internal/platform/middleware"
	dErrors "funnelgate/pkg/domain-errors"
	"funnelgate/pkg/platform/httputil"
)

// Orchestrator defines the interface for funnel operations.
type Orchestrator interface {
	Landing(ctx context.Context, req LandingRequest) LandingResponse
	Redirect(ctx context.Context, req RedirectRequest) (RedirectResponse, error)
	Autofill(ctx context.Context, vid string, params url.Values) AutofillData
}

// Handler wires funnel endpoints to the orchestrator.
type Handler struct {
	service Orchestrator
	logger  *slog.Logger
}

// NewHandler constructs a funnel handler with its dependencies.
func NewHandler(service Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts funnel endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/funnel/landing", h.handleLanding)
	r.Post("/funnel/redirect", h.handleRedirect)
	r.Get("/funnel/autofill", h.handleAutofill)
}

// handleLanding handles POST /funnel/landing requests. Orchestration
// absorbs every upstream failure, so the only error surface here is a
// malformed body.
func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	var req LandingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid landing request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Page.URL == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "page.url is required"))
		return
	}

	resp := h.service.Landing(ctx, req)

	h.logger.InfoContext(ctx, "landing orchestrated",
		"request_id", requestID,
		"vid", req.VID,
		"has_session", resp.SessionID != "",
		"funnel_started", resp.FunnelStarted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleRedirect handles POST /funnel/redirect requests.
func (h *Handler) handleRedirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req RedirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid redirect request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.service.Redirect(ctx, req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "redirect rejected",
				"request_id", requestID,
				"method", req.Method,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "redirect composition failed",
			"request_id", requestID,
			"method", req.Method,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "redirect composed",
		"request_id", requestID,
		"vid", req.VID,
		"method", req.Method,
	)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleAutofill handles GET /funnel/autofill requests. The vid query
// parameter scopes the cached handoff record; the remaining parameters are
// the quiz URL's own, which take precedence.
func (h *Handler) handleAutofill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := r.URL.Query()
	vid := params.Get("vid")

	data := h.service.Autofill(ctx, vid, params)
	httputil.WriteJSON(w, http.StatusOK, data)
}

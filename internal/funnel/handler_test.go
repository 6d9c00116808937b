package funnel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "funnelgate/pkg/domain-errors"
)

type stubOrchestrator struct {
	landingResp  LandingResponse
	landingReq   LandingRequest
	redirectResp RedirectResponse
	redirectErr  error
	autofillData AutofillData
	autofillVID  string
	autofillQ    url.Values
}

func (s *stubOrchestrator) Landing(_ context.Context, req LandingRequest) LandingResponse {
	s.landingReq = req
	return s.landingResp
}

func (s *stubOrchestrator) Redirect(_ context.Context, _ RedirectRequest) (RedirectResponse, error) {
	return s.redirectResp, s.redirectErr
}

func (s *stubOrchestrator) Autofill(_ context.Context, vid string, params url.Values) AutofillData {
	s.autofillVID = vid
	s.autofillQ = params
	return s.autofillData
}

func newTestRouter(stub *stubOrchestrator) chi.Router {
	r := chi.NewRouter()
	NewHandler(stub, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleLanding_OK(t *testing.T) {
	stub := &stubOrchestrator{
		landingResp: LandingResponse{SessionID: "tok-123", CanonicalURL: "https://x.test/lp", FunnelStarted: true},
	}
	router := newTestRouter(stub)

	body := `{"vid":"vid-1","page":{"url":"https://x.test/lp"},"geolocation":{"supported":true,"permission":"granted"}}`
	req := httptest.NewRequest(http.MethodPost, "/funnel/landing", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp LandingResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "tok-123", resp.SessionID)
	assert.True(t, resp.FunnelStarted)
	assert.Equal(t, "vid-1", stub.landingReq.VID)
	assert.Equal(t, "granted", stub.landingReq.Geolocation.Permission)
}

func TestHandleLanding_MalformedBody(t *testing.T) {
	router := newTestRouter(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/funnel/landing", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "bad_request", resp["error"])
}

func TestHandleLanding_MissingPageURL(t *testing.T) {
	router := newTestRouter(&stubOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/funnel/landing", bytes.NewBufferString(`{"vid":"vid-1"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRedirect_OK(t *testing.T) {
	stub := &stubOrchestrator{
		redirectResp: RedirectResponse{
			RedirectURL: "https://www.homelight.com/simple-sale/quiz?address=1+Elm+St",
			Address:     "1 Elm St",
		},
	}
	router := newTestRouter(stub)

	body := `{"vid":"vid-1","method":"dropdown","chosen":{"place_name":"1 Elm St"}}`
	req := httptest.NewRequest(http.MethodPost, "/funnel/redirect", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp RedirectResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "1 Elm St", resp.Address)
}

func TestHandleRedirect_BadMethodPropagates(t *testing.T) {
	stub := &stubOrchestrator{
		redirectErr: dErrors.New(dErrors.CodeBadRequest, "unknown address method"),
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/funnel/redirect", bytes.NewBufferString(`{"method":"teleport"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unknown address method", resp["error_description"])
}

func TestHandleAutofill_PassesVIDAndQuery(t *testing.T) {
	stub := &stubOrchestrator{
		autofillData: AutofillData{Address: "1 Elm St", Name: "Jane Doe"},
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/funnel/autofill?vid=vid-1&address=1+Elm+St", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vid-1", stub.autofillVID)
	assert.Equal(t, "1 Elm St", stub.autofillQ.Get("address"))

	var resp AutofillData
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Jane Doe", resp.Name)
}

package identity

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnelgate/internal/geo"
)

// fakeCheckout serves both checkout endpoints and records what it saw.
type fakeCheckout struct {
	validateEntry map[string]any // nil means empty data array
	partialEntry  map[string]any
	validateFail  bool
	validatedURL  atomic.Value
	partialCalls  atomic.Int32
	partialQuery  atomic.Value
	validateCalls atomic.Int32
}

func (f *fakeCheckout) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/checkout/prepop/v2/validate/landing-page":
			f.validateCalls.Add(1)
			if f.validateFail {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			var body struct {
				URL string `json:"url"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.validatedURL.Store(body.URL)

			data := []map[string]any{}
			if f.validateEntry != nil {
				data = append(data, f.validateEntry)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
		case "/checkout/v3/search/partial-match":
			f.partialCalls.Add(1)
			f.partialQuery.Store(r.URL.Query().Encode())

			data := []map[string]any{}
			if f.partialEntry != nil {
				data = append(data, f.partialEntry)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func entry(index string, source map[string]string) map[string]any {
	return map[string]any{"_index": index, "_source": source}
}

func newIdentityService(srv *httptest.Server) *Service {
	return NewService(NewClient(srv.URL, srv.Client()), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestResolve_CompleteRecordSkipsPartialMatch(t *testing.T) {
	fake := &fakeCheckout{
		validateEntry: entry("checkout_identities", map[string]string{
			"name": "Jane Doe", "phone": "5125550100", "email": "jane@x.com",
		}),
	}
	srv := fake.server(t)
	defer srv.Close()

	record := newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/?address=500+Oak+Ave", geo.Unset())

	assert.Equal(t, "Jane Doe", record.Name)
	assert.Equal(t, SourceInternal, record.Source)
	assert.Equal(t, CategoryAllData, record.Category())
	assert.True(t, record.APIValidationOK)
	assert.Equal(t, int32(0), fake.partialCalls.Load())
}

func TestResolve_IncompleteTriggersPartialMatchAndMerges(t *testing.T) {
	fake := &fakeCheckout{
		validateEntry: entry("data_axle", map[string]string{
			"name": "Jane Doe", "street": "1 Elm St",
		}),
		partialEntry: entry("checkout_identities", map[string]string{
			"phone": "5125550100", "email": "jane@x.com",
		}),
	}
	srv := fake.server(t)
	defer srv.Close()

	record := newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/?address=500+Oak+Ave", geo.Unset())

	assert.Equal(t, int32(1), fake.partialCalls.Load())
	assert.Equal(t, "Jane Doe", record.Name)
	assert.Equal(t, "5125550100", record.Phone)
	assert.Equal(t, "jane@x.com", record.Email)
	assert.Equal(t, "1 Elm St", record.Street)
	assert.Equal(t, SourceDataAxle, record.Source, "merge must not re-attribute the record")
	assert.Equal(t, CategoryAllData, record.Category())
}

func TestResolve_PlaceholderNameSearchesByAddressOnly(t *testing.T) {
	fake := &fakeCheckout{validateEntry: nil}
	srv := fake.server(t)
	defer srv.Close()

	record := newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/?address=500%20Oak%20Ave&name=%3CFNAME%3E&eid=9", geo.Unset())

	require.Equal(t, int32(1), fake.partialCalls.Load())
	query := fake.partialQuery.Load().(string)
	assert.Equal(t, "address=500+Oak+Ave", query, "only the valid address key is sent")
	assert.Empty(t, record.Name, "placeholder name never becomes contact data")
	assert.Equal(t, CategoryPartialData, record.Category())
}

func TestResolve_AllKeysInvalidSkipsPartialMatch(t *testing.T) {
	fake := &fakeCheckout{validateEntry: nil}
	srv := fake.server(t)
	defer srv.Close()

	record := newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/?name=%3CFNAME%3E&email=%3CEMAIL%3E", geo.Unset())

	assert.Equal(t, int32(0), fake.partialCalls.Load(),
		"supplementary lookup requires at least one valid search key")
	assert.Empty(t, record.Name)
}

func TestResolve_GeolocatedAddressInjectedIntoValidation(t *testing.T) {
	fake := &fakeCheckout{
		validateEntry: entry("checkout_identities", map[string]string{
			"name": "Jane", "phone": "5125550100", "email": "jane@x.com",
		}),
	}
	srv := fake.server(t)
	defer srv.Close()

	geoState := geo.State{
		Permission: geo.PermissionGranted,
		Triggered:  true,
		Address:    "42 Birch Rd, Austin, Texas 78702",
	}

	newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/?address=old+address", geoState)

	validated := fake.validatedURL.Load().(string)
	assert.Contains(t, validated, "42+Birch+Rd")
	assert.NotContains(t, validated, "old+address")
}

func TestResolve_PrimaryFailureFallsBackToURLParams(t *testing.T) {
	fake := &fakeCheckout{validateFail: true}
	srv := fake.server(t)
	defer srv.Close()

	record := newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/?address=500+Oak+Ave&name=%3CFNAME%3E&phone=5125550100", geo.Unset())

	assert.False(t, record.APIValidationOK)
	assert.Equal(t, "500 Oak Ave", record.Address)
	assert.Empty(t, record.Name, "placeholder cleaned in fallback")
	assert.Equal(t, "5125550100", record.Phone)
	assert.Equal(t, int32(0), fake.partialCalls.Load(), "no supplement after primary failure")
}

func TestResolve_EmptyDataIsNoDataNotError(t *testing.T) {
	fake := &fakeCheckout{validateEntry: nil}
	srv := fake.server(t)
	defer srv.Close()

	record := newIdentityService(srv).Resolve(context.Background(),
		"https://offers.example.com/", geo.Unset())

	assert.True(t, record.APIValidationOK)
	assert.Empty(t, record.Name)
	assert.Equal(t, Source(""), record.Source)
	assert.Equal(t, int32(0), fake.partialCalls.Load(), "nothing to search with")
}

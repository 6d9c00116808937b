package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"funnelgate/internal/geo"
	"funnelgate/internal/identity"
)

func TestBuildPayload_FullURL(t *testing.T) {
	page := PageContext{
		URL:       "https://offers.example.com/sell?utm_source=fb&utm_campaign=spring&eid=9&address=500%20Oak%20Ave&name=%3CFNAME%3E&sessionId=url-sess",
		Referrer:  "https://www.facebook.com/",
		Title:     "Sell your house fast",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	}
	geoState := geo.State{
		Permission: geo.PermissionGranted,
		Triggered:  true,
		Address:    "500 Oak Ave, Austin, Texas 78701",
		Lat:        30.2672,
		Lon:        -97.7431,
	}
	record := identity.Record{
		Name: "Jane", Phone: "5125550100", Email: "jane@x.com",
		Source: identity.SourceDataAxle, APIValidationOK: true,
	}

	p := BuildPayload(page, "sess-1", geoState, record, nil)

	assert.Equal(t, "sess-1", p["sessionId"])
	assert.Equal(t, "fb", p["utmSource"])
	assert.Equal(t, "spring", p["utmCampaign"])
	assert.Equal(t, "9", p["experiment_id"])
	assert.Equal(t, "https://offers.example.com", p["domain"])
	assert.Equal(t, "/sell", p["path"])
	assert.Equal(t, "https://offers.example.com/sell", p["url_without_param"])
	assert.Equal(t, "https://www.facebook.com/", p["referrer"])

	// prepop fields are raw URL values, placeholders included.
	assert.Equal(t, "500 Oak Ave", p["prepop_address"])
	assert.Equal(t, "<FNAME>", p["prepop_name"])
	assert.Equal(t, []string{"name"}, p["invalid_fields"])

	assert.Equal(t, "granted", p["geolocation_permission"])
	assert.Equal(t, "yes", p["geolocation_triggered"])
	assert.Equal(t, "30.2672", p["geolocation_lat"])
	assert.Equal(t, "-97.7431", p["geolocation_long"])

	assert.Equal(t, "address_dataaxle", p["identity_api_source"])
	assert.Equal(t, "all_data_present", p["identity_checkout_category"])
	assert.Equal(t, true, p["api_validation_success"])
	assert.Equal(t, "no", p["address_chosen"])

	assert.Equal(t, "Safari", p["ua_browser"])
	assert.Equal(t, true, p["ua_mobile"])
}

func TestBuildPayload_MissingStateDegradesToDefaults(t *testing.T) {
	p := BuildPayload(PageContext{URL: "https://offers.example.com/"}, "", geo.Unset(), identity.Record{}, nil)

	assert.Equal(t, "", p["sessionId"])
	assert.Equal(t, "", p["prepop_name"])
	assert.Equal(t, "user_disabled", p["geolocation_permission"])
	assert.Equal(t, "no", p["geolocation_triggered"])
	assert.Equal(t, "", p["geolocation_lat"])
	assert.Equal(t, "", p["identity_api_source"])
	assert.Equal(t, "", p["identity_checkout_category"])
	assert.Equal(t, "en-US", p["locale"])
	assert.Equal(t, []string{}, p["invalid_fields"])

	for _, key := range []string{"quiz_address", "quiz_name", "quiz_email", "quiz_phone"} {
		assert.Equal(t, "", p[key])
	}
}

func TestBuildPayload_SessionIDFallsBackToURL(t *testing.T) {
	p := BuildPayload(PageContext{URL: "https://offers.example.com/?sessionId=from-url"}, "", geo.Unset(), identity.Record{}, nil)
	assert.Equal(t, "from-url", p["sessionId"])
}

func TestBuildPayload_ExtraOverrides(t *testing.T) {
	p := BuildPayload(PageContext{URL: "https://offers.example.com/"}, "s", geo.Unset(), identity.Record{}, map[string]any{
		"address_chosen": "dropdown",
		"entry":          true,
	})
	assert.Equal(t, "dropdown", p["address_chosen"])
	assert.Equal(t, true, p["entry"])
}

func TestBuildPayload_UnparseableURL(t *testing.T) {
	p := BuildPayload(PageContext{URL: "://not a url"}, "", geo.Unset(), identity.Record{}, nil)
	assert.Equal(t, "", p["utmSource"])
	assert.Equal(t, "://", p["domain"])
}

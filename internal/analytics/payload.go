package analytics

import (
	"net/url"
	"strconv"

	"github.com/mssola/useragent"

	"funnelgate/internal/geo"
	"funnelgate/internal/identity"
	"funnelgate/pkg/prepop"
)

// PageContext carries the page-level facts the browser reports with each
// request.
type PageContext struct {
	URL       string `json:"url"`
	Referrer  string `json:"referrer"`
	Title     string `json:"title"`
	UserAgent string `json:"userAgent"`
	Locale    string `json:"locale"`
}

// BuildPayload assembles the flat event record shared by the page-view and
// funnel-step events. Assembly is pure: missing upstream state (no session
// id, unresolved geolocation) degrades to empty strings and defaults,
// never to absent keys. extra shallow-overrides any derived field.
func BuildPayload(page PageContext, sessionID string, geoState geo.State, record identity.Record, extra map[string]any) map[string]any {
	parsed, err := url.Parse(page.URL)
	if err != nil {
		parsed = &url.URL{}
	}
	q := parsed.Query()

	if sessionID == "" {
		sessionID = q.Get("sessionId")
	}

	payload := map[string]any{
		// Page metadata.
		"title":             page.Title,
		"domain":            parsed.Scheme + "://" + parsed.Host,
		"url":               page.URL,
		"path":              parsed.Path,
		"url_without_param": parsed.Scheme + "://" + parsed.Host + parsed.Path,
		"userAgent":         page.UserAgent,
		"locale":            localeOr(page.Locale),
		"search":            rawQuery(parsed),
		"referrer":          page.Referrer,

		// Session tracking.
		"sessionId": sessionID,
		"affid":     q.Get("affid"),
		"userId":    "",

		// UTM parameters, raw from the URL.
		"utmSource":   q.Get("utm_source"),
		"utmMedium":   q.Get("utm_medium"),
		"utmCampaign": q.Get("utm_campaign"),
		"utmTerm":     q.Get("utm_term"),
		"utmContent":  q.Get("utm_content"),
		"tuneId":      q.Get("tuneId"),
		"fbclid":      q.Get("fbclid"),
		"gclid":       q.Get("gclid"),

		// Additional tracking parameters.
		"experiment_id": q.Get("eid"),
		"d":             q.Get("d"),
		"checkoutId":    q.Get("checkoutId"),

		// Prepopulated fields: the literal URL values, unvalidated — the
		// tracking backend expects to see what the ad platform sent.
		"prepop_email":   q.Get("email"),
		"prepop_phone":   q.Get("phone"),
		"prepop_name":    q.Get("name"),
		"prepop_address": q.Get("address"),
		"prepop_street":  q.Get("street"),
		"prepop_city":    q.Get("city"),
		"prepop_state":   q.Get("state"),
		"prepop_zip":     q.Get("zip"),
		"prepop_fname":   q.Get("fname"),
		"prepop_lname":   q.Get("lname"),

		// Quiz fields stay empty until the visitor submits off-site.
		"quiz_address":   "",
		"quiz_name":      "",
		"quiz_email":     "",
		"quiz_phone":     "",
		"quiz_firstname": "",
		"quiz_lastname":  "",

		// Geolocation outcome.
		"geolocation_address":    geoState.Address,
		"geolocation_lat":        coord(geoState, geoState.Lat),
		"geolocation_long":       coord(geoState, geoState.Lon),
		"geolocation_permission": string(geoState.Permission),
		"geolocation_triggered":  yesNo(geoState.Triggered),

		// Status flags.
		"address_chosen": "no",

		// Validation bookkeeping.
		"invalid_fields": invalidFields(q),
		"validated_url":  page.URL,

		// Identity resolution outcome.
		"ip":                         "",
		"identity_api_source":        string(record.Source),
		"identity_checkout_category": categoryOrEmpty(record),
		"api_validation_success":     record.APIValidationOK,
	}

	addUserAgentFields(payload, page.UserAgent)

	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

// invalidFields lists the checked parameters that are present in the URL
// but fail validation. An empty URL yields an empty (non-nil) list.
func invalidFields(q url.Values) []string {
	invalid := []string{}
	for _, p := range identity.CheckedParams {
		if q.Has(p) && !prepop.IsValidParam(q.Get(p)) {
			invalid = append(invalid, p)
		}
	}
	return invalid
}

// addUserAgentFields enriches the payload with parsed browser facts.
func addUserAgentFields(payload map[string]any, ua string) {
	if ua == "" {
		payload["ua_browser"] = ""
		payload["ua_os"] = ""
		payload["ua_mobile"] = false
		return
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	payload["ua_browser"] = name
	payload["ua_browser_version"] = version
	payload["ua_os"] = parsed.OS()
	payload["ua_mobile"] = parsed.Mobile()
}

func coord(s geo.State, v float64) string {
	if s.Permission != geo.PermissionGranted {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func localeOr(locale string) string {
	if locale == "" {
		return "en-US"
	}
	return locale
}

func rawQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

// categoryOrEmpty reports the completeness category only once identity
// resolution produced something; a zero record reads as "".
func categoryOrEmpty(r identity.Record) string {
	if r == (identity.Record{}) {
		return ""
	}
	return string(r.Category())
}

package funnel

import (
	"funnelgate/internal/analytics"
	"funnelgate/internal/geo"
	"funnelgate/internal/identity"
	"funnelgate/internal/redirect"
)

// LandingRequest is what the page posts once per load.
type LandingRequest struct {
	// VID identifies the visitor's tab; it scopes the session token cache
	// and the mid-redirect record.
	VID         string                `json:"vid"`
	Page        analytics.PageContext `json:"page"`
	Geolocation geo.BrowserReport     `json:"geolocation"`
}

// LandingResponse carries everything the page needs after orchestration.
// The endpoint returns it even when every upstream call failed.
type LandingResponse struct {
	SessionID     string       `json:"session_id"`
	CanonicalURL  string       `json:"canonical_url"`
	Geolocation   GeoView      `json:"geolocation"`
	Identity      IdentityView `json:"identity"`
	FunnelStarted bool         `json:"funnel_started"`
}

// GeoView is the geolocation state as exposed to the page.
type GeoView struct {
	Permission string  `json:"permission"`
	Triggered  string  `json:"triggered"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat,omitempty"`
	Lon        float64 `json:"lon,omitempty"`
}

// IdentityView is the resolved contact bundle as exposed to the page.
type IdentityView struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Address         string `json:"address"`
	Street          string `json:"street"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             string `json:"zip"`
	Source          string `json:"source"`
	Category        string `json:"category"`
	APIValidationOK bool   `json:"api_validation_success"`
}

func geoView(s geo.State) GeoView {
	triggered := "no"
	if s.Triggered {
		triggered = "yes"
	}
	return GeoView{
		Permission: string(s.Permission),
		Triggered:  triggered,
		Address:    s.Address,
		Lat:        s.Lat,
		Lon:        s.Lon,
	}
}

func identityView(r identity.Record) IdentityView {
	return IdentityView{
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		Address:         r.Address,
		Street:          r.Street,
		City:            r.City,
		State:           r.State,
		Zip:             r.Zip,
		Source:          string(r.Source),
		Category:        string(r.Category()),
		APIValidationOK: r.APIValidationOK,
	}
}

// RedirectRequest is posted when the visitor commits to an address.
type RedirectRequest struct {
	VID      string                  `json:"vid"`
	Page     analytics.PageContext   `json:"page"`
	Method   string                  `json:"method"`
	Chosen   redirect.Chosen         `json:"chosen"`
	Original redirect.OriginalParams `json:"original"`
	Contact  redirect.Contact        `json:"contact"`
}

// RedirectResponse hands the composed URL back; the page navigates when
// its loading transition finishes.
type RedirectResponse struct {
	RedirectURL string `json:"redirect_url"`
	Address     string `json:"address"`
}

// AutofillData is what the quiz-side script prefills from.
type AutofillData struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

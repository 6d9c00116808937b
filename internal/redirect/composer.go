// Package redirect composes the outbound URL that hands a visitor to the
// external quiz application. Contact fields ride along Base64-encoded under
// single-letter keys — that is visible encoding expected by the quiz-side
// autofill, not confidentiality.
package redirect

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"time"

	"funnelgate/pkg/prepop"
	"funnelgate/pkg/usaddr"
)

// Method records how the visitor arrived at an address.
type Method string

const (
	MethodManual       Method = "manual"
	MethodDropdown     Method = "dropdown"
	MethodPrepopulated Method = "prepopulated"
)

// quizPath and the fixed flags are the contract with the quiz application.
const (
	quizPath     = "/simple-sale/quiz"
	quizFragment = "/qaas=0/"
)

// Chosen is the address the visitor settled on: the widget's canonical
// place name plus its structured parts.
type Chosen struct {
	PlaceName string `json:"place_name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// OriginalParams are the address parts the visitor arrived with on the URL,
// before any interaction.
type OriginalParams struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Contact carries the optional prefill fields attached to the redirect.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Composer builds quiz redirect URLs.
type Composer struct {
	baseURL string
	now     func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides the timestamp source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

func NewComposer(baseURL string, opts ...Option) *Composer {
	c := &Composer{baseURL: baseURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds the outbound quiz URL. A prepopulated address the visitor
// did not edit keeps the original URL's phrasing rebuilt from its parts;
// anything else uses the chosen place name with the country suffix
// stripped. Valid contact fields attach Base64-encoded under n/p/e;
// invalid or absent fields are omitted entirely. Compose never navigates —
// the caller decides when.
func (c *Composer) Compose(chosen Chosen, method Method, original OriginalParams, contact Contact) (*url.URL, error) {
	target, err := url.Parse(c.baseURL + quizPath)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("interested_in_agent", "true")
	q.Set("address", c.chooseAddress(chosen, method, original))
	q.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))

	if name := prepop.Clean(contact.Name); name != "" {
		q.Set("n", base64.StdEncoding.EncodeToString([]byte(name)))
	}
	if phone := prepop.Clean(contact.Phone); phone != "" {
		q.Set("p", base64.StdEncoding.EncodeToString([]byte(phone)))
	}
	if email := prepop.Clean(contact.Email); email != "" {
		q.Set("e", base64.StdEncoding.EncodeToString([]byte(email)))
	}

	target.RawQuery = q.Encode()
	target.Fragment = quizFragment
	return target, nil
}

// chooseAddress applies the original-phrasing rule: an unedited
// prepopulated selection is rebuilt from the visitor's own street/city/
// state/zip rather than the widget's canonicalized text.
func (c *Composer) chooseAddress(chosen Chosen, method Method, original OriginalParams) string {
	if method == MethodPrepopulated && original.Street != "" && !edited(chosen, original) {
		return usaddr.Join(original.Street, original.City, original.State, original.Zip)
	}
	return usaddr.StripCountrySuffix(chosen.PlaceName)
}

// edited compares the selection against the original parts field by field.
func edited(chosen Chosen, original OriginalParams) bool {
	return chosen.Street != original.Street ||
		chosen.City != original.City ||
		chosen.State != original.State ||
		chosen.Zip != original.Zip
}

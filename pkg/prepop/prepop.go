// Package prepop validates prepopulation values arriving on landing-page
// URLs. Upstream ad platforms frequently leave merge tags unresolved
// (`<FNAME>`, `%3CEMAIL%3E`), and every consumer in the funnel must treat
// such values as absent rather than real contact data.
package prepop

import (
	"net/url"
	"regexp"
	"strings"
)

// mergeTag matches a value that is nothing but an angle-bracketed template
// token, e.g. <FNAME> or <email_address>.
var mergeTag = regexp.MustCompile(`(?i)^<[A-Za-z_]+>$`)

// IsValidParam reports whether val is a real user-supplied value. It
// rejects empty strings, unresolved merge tags, and anything carrying a
// placeholder marker. Values are URL-unescaped and trimmed before
// inspection; malformed percent-encoding counts as invalid, never as an
// error.
func IsValidParam(val string) bool {
	if val == "" {
		return false
	}

	decoded, err := url.QueryUnescape(strings.TrimSpace(val))
	if err != nil {
		return false
	}
	decoded = strings.TrimSpace(decoded)

	switch {
	case decoded == "":
		return false
	case strings.HasPrefix(decoded, "<"):
		return false
	case strings.HasSuffix(decoded, ">"):
		return false
	case strings.Contains(decoded, "PLACEHOLDER"):
		return false
	case strings.Contains(decoded, "placeholder"):
		return false
	case mergeTag.MatchString(decoded):
		return false
	}
	return true
}

// Clean returns the trimmed, decoded value when it passes IsValidParam and
// the empty string otherwise. Downstream code never sees placeholder text.
func Clean(val string) string {
	if !IsValidParam(val) {
		return ""
	}
	decoded, err := url.QueryUnescape(strings.TrimSpace(val))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(decoded)
}

// AnyValid reports whether at least one of the given values passes
// IsValidParam. The partial-match backend requires at least one real search
// key, so callers use this to decide whether a lookup is worth issuing.
func AnyValid(vals ...string) bool {
	for _, v := range vals {
		if IsValidParam(v) {
			return true
		}
	}
	return false
}

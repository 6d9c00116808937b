// Package usaddr holds the small US-address formatting rules shared by the
// geocoding and redirect paths.
package usaddr

import "strings"

const countrySuffix = ", United States"

// StripCountrySuffix removes the trailing country name the geocoding
// provider appends to US place names. The funnel never shows or forwards
// the country.
func StripCountrySuffix(place string) string {
	return strings.TrimSuffix(place, countrySuffix)
}

// Join builds a display address from its parts, skipping empties:
// "1 Elm St, Austin, TX, 78701".
func Join(street, city, state, zip string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{street, city, state, zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

package geo

// Permission is the terminal outcome of one geolocation attempt.
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUserDisabled Permission = "user_disabled"
	PermissionNotSupported Permission = "not_supported"
	PermissionUnavailable  Permission = "unavailable"
	PermissionTimeout      Permission = "timeout"
)

// State is the resolved geolocation outcome for one page load. It is
// written once per resolution and read by the identity resolver and the
// analytics payload builder; the slot being unset reads as the Unset
// default, never as an error.
type State struct {
	Permission Permission
	Triggered  bool
	Address    string
	Lat        float64
	Lon        float64
}

// Unset is the pre-resolution default: user_disabled, not triggered.
func Unset() State {
	return State{Permission: PermissionUserDisabled}
}

// HasAddress reports whether the visitor granted access and a street
// address was resolved from the coordinates.
func (s State) HasAddress() bool {
	return s.Permission == PermissionGranted && s.Address != ""
}

// BrowserReport carries the browser-side geolocation facts the page
// observed: capability, the permission outcome of the (single) prompt, and
// coordinates when granted. The server never prompts; it only classifies
// and reverse-geocodes.
type BrowserReport struct {
	Supported  bool    `json:"supported"`
	Permission string  `json:"permission"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

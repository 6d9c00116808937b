package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so services can decide how to degrade; in this
// service nearly every one of them is absorbed into a fallback rather than
// surfaced to the page.
//
// - ErrNotFound: no cached value for the key (session token, mid-redirect record)
// - ErrUnavailable: upstream or cache temporarily unreachable
// - ErrMalformed: upstream answered but the expected field was missing
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrMalformed   = errors.New("malformed response")
)

package rules

import (
	"errors"
	"fmt"
)

// Errors returned when parsing a From or a To.
var (
	ErrMissingLeadingSlash  = errors.New("path must start with '/'")
	ErrMissingTrailingSlash = errors.New("path must end with '/'")
	ErrTooManyFallbacks     = errors.New("at most one '|' fallback is allowed")
	ErrInvalidURI           = errors.New("invalid uri")
	ErrFallbackNotAllowed   = errors.New("fallback is only allowed for file destinations")
	ErrQueryNotAllowed      = errors.New("query is not allowed for status destinations")
	ErrNoTrailingSlash      = errors.New("destination must end with '/'")
	ErrInvalidStatus        = errors.New("invalid status code")
	ErrInvalidScheme        = errors.New("invalid scheme")
	ErrNoScheme             = errors.New("missing scheme")
	ErrUnequalFromTo        = errors.New("unequal number of `from` and `to` addresses")
)

// Outcomes of resolving a request against a rule set.
var (
	// ErrNoMatch means no rule applies to the request. It is a regular outcome, not a fault.
	ErrNoMatch = errors.New("no matching rule")
	// ErrInvalidGeneratedURI means an http rule matched but prefix + tail is not a valid uri.
	ErrInvalidGeneratedURI = errors.New("generated uri is invalid")
)

// PairError reports a rule that failed to parse together with the pair it came from.
type PairError struct {
	From string
	To   string
	Err  error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("%s -> %s: %s", e.From, e.To, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}

package rules

import "strings"

// From is a validated request path prefix. It always starts and ends with '/'.
type From struct {
	prefix string
}

func ParseFrom(s string) (From, error) {
	if !strings.HasPrefix(s, "/") {
		return From{}, ErrMissingLeadingSlash
	}
	if !strings.HasSuffix(s, "/") {
		return From{}, ErrMissingTrailingSlash
	}
	return From{prefix: s}, nil
}

// MustParseFrom is like ParseFrom but panics on error. Meant for tests and static tables.
func MustParseFrom(s string) From {
	f, err := ParseFrom(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f From) String() string {
	return f.prefix
}

// strip removes the prefix from p. The second return value reports whether the prefix
// applied; a tail that is the whole of p does not count as a match.
func (f From) strip(p string) (string, bool) {
	tail, ok := strings.CutPrefix(p, f.prefix)
	if !ok || tail == p {
		return "", false
	}
	return tail, true
}

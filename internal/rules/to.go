package rules

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	schemeHTTP   = "http"
	schemeHTTPS  = "https"
	schemeFile   = "file"
	schemeStatus = "status"

	fallbackSeparator = "|"
)

// To is a validated redirect destination. It is one of HTTP, File or Status.
type To interface {
	fmt.Stringer
	isTo()
}

// HTTP forwards matching requests to an upstream. The prefix is an absolute http(s) uri
// ending in '/'.
type HTTP struct {
	prefix string
}

// File serves matching requests from disk. Prefix is a file system path ending in '/'.
// Fallback, when set, is served if the resolved path cannot be opened.
type File struct {
	uri      string
	prefix   string
	fallback string
}

// Status answers matching requests with a fixed status code and no body.
type Status struct {
	code int
}

func (HTTP) isTo()   {}
func (File) isTo()   {}
func (Status) isTo() {}

func (h HTTP) Prefix() string { return h.prefix }

func (h HTTP) String() string { return h.prefix }

func (f File) Prefix() string { return f.prefix }

// Fallback returns the fallback path and whether one was configured.
func (f File) Fallback() (string, bool) { return f.fallback, f.fallback != "" }

func (f File) String() string {
	if f.fallback == "" {
		return f.uri
	}
	return f.uri + fallbackSeparator + f.fallback
}

func (s Status) Code() int { return s.code }

func (s Status) String() string {
	return schemeStatus + "://" + strconv.Itoa(s.code)
}

// ParseTo parses a destination of the form scheme://authority/path[|fallback].
func ParseTo(s string) (To, error) {
	parts := strings.Split(s, fallbackSeparator)
	if len(parts) > 2 {
		return nil, ErrTooManyFallbacks
	}
	hasFallback := len(parts) == 2
	var fallback string
	if hasFallback {
		fallback = parts[1]
	}

	u, err := url.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	if u.Scheme == "" {
		return nil, ErrNoScheme
	}
	if u.Opaque != "" {
		return nil, fmt.Errorf("%w: %q is not an absolute uri", ErrInvalidURI, parts[0])
	}

	switch u.Scheme {
	case schemeHTTP, schemeHTTPS:
		if hasFallback {
			return nil, ErrFallbackNotAllowed
		}
		return parseHTTP(u)
	case schemeFile:
		return parseFile(u, fallback)
	case schemeStatus:
		if hasFallback {
			return nil, ErrFallbackNotAllowed
		}
		return parseStatus(u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}
}

// MustParseTo is like ParseTo but panics on error.
func MustParseTo(s string) To {
	t, err := ParseTo(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parseHTTP(u *url.URL) (HTTP, error) {
	if u.Host == "" {
		return HTTP{}, fmt.Errorf("%w: missing host", ErrInvalidURI)
	}
	// An authority-only uri serializes with a root path.
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	s := u.String()
	if !strings.HasSuffix(s, "/") {
		return HTTP{}, ErrNoTrailingSlash
	}
	return HTTP{prefix: s}, nil
}

func parseFile(u *url.URL, fallback string) (File, error) {
	prefix := u.Host + u.Path
	if !strings.HasSuffix(prefix, "/") {
		return File{}, ErrNoTrailingSlash
	}
	canonical := &url.URL{Scheme: schemeFile, Host: u.Host, Path: u.Path}
	return File{
		uri:      canonical.String(),
		prefix:   prefix,
		fallback: fallback,
	}, nil
}

func parseStatus(u *url.URL) (Status, error) {
	if u.RawQuery != "" || u.ForceQuery {
		return Status{}, ErrQueryNotAllowed
	}
	if u.User != nil {
		return Status{}, fmt.Errorf("%w: unexpected userinfo", ErrInvalidStatus)
	}
	code, err := strconv.ParseUint(u.Host, 10, 16)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return Status{}, fmt.Errorf("%w: %q: %w", ErrInvalidStatus, u.Host, err)
	}
	if code < 100 || code > 599 {
		return Status{}, fmt.Errorf("%w: %d is out of range", ErrInvalidStatus, code)
	}
	return Status{code: int(code)}, nil
}

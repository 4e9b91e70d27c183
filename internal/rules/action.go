package rules

import (
	"fmt"
	"net/url"
)

// Action is the per-request outcome of matching: ForwardHTTP, ServeFile or ReturnStatus.
type Action interface {
	isAction()
}

// ForwardHTTP sends the request to URL.
type ForwardHTTP struct {
	URL *url.URL
}

// ServeFile streams Path, or Fallback when Path cannot be opened. Root is the prefix of the
// rule that produced the action; Path never legitimately leaves it.
type ServeFile struct {
	Path     string
	Fallback string
	Root     string
}

// ReturnStatus answers with Code and an empty body.
type ReturnStatus struct {
	Code int
}

func (ForwardHTTP) isAction()  {}
func (ServeFile) isAction()    {}
func (ReturnStatus) isAction() {}

// Resolve matches u against the rule set. http rules see the escaped path and query as sent
// by the client, file and status rules see only the decoded path.
func (rs Rules) Resolve(u *url.URL) (Action, error) {
	return rs.ResolvePath(u.RequestURI(), u.Path)
}

// ResolvePath scans the rules in order and builds an Action from the first one whose From
// is a prefix of the comparison path. It returns ErrNoMatch when nothing applies and
// ErrInvalidGeneratedURI when an http rule produces an unparseable uri.
func (rs Rules) ResolvePath(pathAndQuery, path string) (Action, error) {
	for _, rule := range rs.rules {
		switch to := rule.To.(type) {
		case HTTP:
			tail, ok := rule.From.strip(pathAndQuery)
			if !ok {
				continue
			}
			target := to.prefix + tail
			u, err := url.Parse(target)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidGeneratedURI, err)
			}
			return ForwardHTTP{URL: u}, nil
		case File:
			tail, ok := rule.From.strip(path)
			if !ok {
				continue
			}
			return ServeFile{Path: to.prefix + tail, Fallback: to.fallback, Root: to.prefix}, nil
		case Status:
			if _, ok := rule.From.strip(path); !ok {
				continue
			}
			return ReturnStatus{Code: to.code}, nil
		default:
			panic(fmt.Sprintf("rules: unhandled destination %T", rule.To))
		}
	}
	return nil, ErrNoMatch
}

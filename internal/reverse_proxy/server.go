// Package reverse_proxy dispatches inbound requests according to a rules.Rules set: it
// forwards to upstreams, streams files from disk or answers with a fixed status.
package reverse_proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/google/uuid"
	"github.com/habitat-network/redirector/internal/rules"
	"github.com/habitat-network/redirector/internal/utils"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the id used to correlate log lines of one request. A client
// supplied value is reused, otherwise one is generated.
const RequestIDHeader = "X-Request-Id"

const defaultDialTimeout = 10 * time.Second

type ProxyServer struct {
	logger       *zerolog.Logger
	rules        rules.Rules
	upstream     *httputil.ReverseProxy
	transport    http.RoundTripper
	errorHandler ErrorHandler
}

type Option func(*ProxyServer)

// WithTransport sets the round tripper used for upstream requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *ProxyServer) {
		s.transport = rt
	}
}

// WithErrorHandler sets the handler answering requests whose upstream call failed.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *ProxyServer) {
		s.errorHandler = h
	}
}

func NewProxyServer(logger *zerolog.Logger, rs rules.Rules, opts ...Option) *ProxyServer {
	s := &ProxyServer{
		logger:       logger,
		rules:        rs,
		errorHandler: DefaultErrorHandler,
	}
	for _, o := range opts {
		o(s)
	}
	if s.transport == nil {
		s.transport = NewTransport(defaultDialTimeout)
	}
	s.upstream = newUpstreamProxy(s.logger, s.transport, s.errorHandler)
	return s
}

func (s *ProxyServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	logger := s.logger.With().
		Str("request_id", id).
		Str("method", r.Method).
		Str("uri", r.URL.RequestURI()).
		Logger()
	r = r.WithContext(logger.WithContext(r.Context()))

	action, err := s.rules.Resolve(r.URL)
	if errors.Is(err, rules.ErrNoMatch) {
		logger.Warn().Msg("[no match]")
		w.WriteHeader(http.StatusBadGateway)
		return
	} else if err != nil {
		utils.LogAndStatus(w, r, err, "[internal error]", http.StatusInternalServerError)
		return
	}

	switch a := action.(type) {
	case rules.ForwardHTTP:
		s.forward(w, r, a)
	case rules.ServeFile:
		s.serveFile(w, r, a)
	case rules.ReturnStatus:
		logger.Info().Int("status", a.Code).Msg("returning status")
		w.WriteHeader(a.Code)
	default:
		panic(fmt.Sprintf("reverse_proxy: unhandled action %T", action))
	}
}

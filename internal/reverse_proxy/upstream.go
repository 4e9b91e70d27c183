package reverse_proxy

import (
	"context"
	stdlog "log"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/habitat-network/redirector/internal/rules"
	"github.com/habitat-network/redirector/internal/utils"
	"github.com/rs/zerolog"
)

// ErrorHandler answers a request whose upstream round trip failed. Failed requests are
// never retried.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler answers 502 with an empty body.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	utils.LogAndStatus(w, r, err, "[upstream error]", http.StatusBadGateway)
}

// NewTransport returns an upstream transport that ignores proxy environment variables and
// gives up connecting after dialTimeout.
func NewTransport(dialTimeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = (&net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return t
}

type targetKey struct{}

// newUpstreamProxy builds the proxy shared by all forwarded requests. The destination of
// each request travels in its context.
func newUpstreamProxy(logger *zerolog.Logger, rt http.RoundTripper, onError ErrorHandler) *httputil.ReverseProxy {
	errLogger := logger.With().Str("component", "upstream").Logger()
	return &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			target := req.Context().Value(targetKey{}).(*url.URL)
			u := *target
			req.URL = &u
		},
		Transport:    rt,
		ErrorHandler: onError,
		ErrorLog:     stdlog.New(errLogger, "", 0),
	}
}

func (s *ProxyServer) forward(w http.ResponseWriter, r *http.Request, a rules.ForwardHTTP) {
	zerolog.Ctx(r.Context()).Info().Str("target", a.URL.String()).Msg("forwarding")
	ctx := context.WithValue(r.Context(), targetKey{}, a.URL)
	s.upstream.ServeHTTP(w, r.WithContext(ctx))
}

// Package server runs http.Servers as errgroup-friendly functions.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type tlsFiles struct {
	certFile string
	keyFile  string
}

type options struct {
	listener net.Listener
	tls      *tlsFiles
}

type Option func(*options)

// WithTLS serves over TLS with the given PEM certificate chain and key.
func WithTLS(certFile, keyFile string) Option {
	return func(o *options) {
		o.tls = &tlsFiles{certFile: certFile, keyFile: keyFile}
	}
}

// WithListener serves on ln instead of listening on srv.Addr.
func WithListener(ln net.Listener) Option {
	return func(o *options) {
		o.listener = ln
	}
}

// ServeFn returns a callback that serves srv until it is shut down. A clean shutdown
// returns nil.
func ServeFn(srv *http.Server, name string, opts ...Option) func() error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return func() error {
		ln := o.listener
		if ln == nil {
			var err error
			ln, err = net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
		}
		defer ln.Close()

		var err error
		if o.tls != nil {
			if srv.TLSConfig == nil {
				srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
			log.Info().Str("server", name).Str("addr", ln.Addr().String()).Msg("serving over TLS")
			err = srv.ServeTLS(ln, o.tls.certFile, o.tls.keyFile)
		} else {
			log.Info().Str("server", name).Str("addr", ln.Addr().String()).Msg("serving")
			err = srv.Serve(ln)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Str("server", name).Msg("server closed abnormally")
			return err
		}
		return nil
	}
}

// ShutdownFn returns a callback that waits for ctx to end and then shuts srv down, giving
// in-flight requests up to timeout to finish.
func ShutdownFn(ctx context.Context, srv *http.Server, name string, timeout time.Duration) func() error {
	return func() error {
		<-ctx.Done()
		log.Info().Str("server", name).Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Whatever is still running after the grace period is cut off.
			_ = srv.Close()
			return err
		}
		return nil
	}
}

package reverse_proxy

import (
	"errors"
	"net"

	"tailscale.com/tsnet"
)

type ListenConfig struct {
	Addr string

	// TailnetHostname, when set, listens on a tailnet node of that name instead of a
	// local socket. The node authenticates with TS_AUTHKEY.
	TailnetHostname string
	TailnetStateDir string
	// TailnetFunnel exposes the listener to the public internet through Tailscale Funnel.
	TailnetFunnel bool
}

// tailnetListener stops the embedded tailnet node when closed.
type tailnetListener struct {
	net.Listener
	node *tsnet.Server
}

func (l *tailnetListener) Close() error {
	return errors.Join(l.Listener.Close(), l.node.Close())
}

func (s *ProxyServer) Listener(cfg ListenConfig) (net.Listener, error) {
	if cfg.TailnetHostname == "" {
		return net.Listen("tcp", cfg.Addr)
	}

	node := &tsnet.Server{
		Hostname: cfg.TailnetHostname,
		Dir:      cfg.TailnetStateDir,
		Logf: func(msg string, args ...any) {
			s.logger.Debug().Msgf(msg, args...)
		},
	}

	var ln net.Listener
	var err error
	if cfg.TailnetFunnel {
		ln, err = node.ListenFunnel("tcp", cfg.Addr)
	} else {
		ln, err = node.Listen("tcp", cfg.Addr)
	}
	if err != nil {
		return nil, errors.Join(err, node.Close())
	}
	return &tailnetListener{Listener: ln, node: node}, nil
}

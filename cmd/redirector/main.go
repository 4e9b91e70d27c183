package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/habitat-network/redirector/internal/config"
	"github.com/habitat-network/redirector/internal/logging"
	"github.com/habitat-network/redirector/internal/reverse_proxy"
	"github.com/habitat-network/redirector/internal/rules"
	"github.com/habitat-network/redirector/internal/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const serverName = "redirector"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("unable to load .env file")
	}
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("error running command")
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                      serverName,
		Usage:                     "Redirect requests by path prefix to upstreams, files or fixed statuses",
		Flags:                     getFlags(),
		UseShortOptionHandling:    true,
		DisableSliceFlagSeparator: true,
		Action:                    run,
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Validate the configured rules and print them in match order",
				Action: check,
			},
		},
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := setupLogger(cmd)
	if err != nil {
		return err
	}

	// Configuration errors are fatal before anything listens.
	rs, err := loadRules(cmd)
	if err != nil {
		return err
	}
	if rs.Len() == 0 {
		log.Warn().Msg("no rules configured, every request will be answered with 502")
	}
	for _, r := range rs.All() {
		log.Info().Stringer("rule", r).Msg("loaded rule")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proxy := reverse_proxy.NewProxyServer(
		logger,
		rs,
		reverse_proxy.WithTransport(reverse_proxy.NewTransport(cmd.Duration(fDialTimeout))),
	)

	addr := cmd.String(fListen)
	ln, err := proxy.Listener(reverse_proxy.ListenConfig{
		Addr:            addr,
		TailnetHostname: cmd.String(fTailnetHostname),
		TailnetStateDir: cmd.String(fTailnetStateDir),
		TailnetFunnel:   cmd.Bool(fTailnetFunnel),
	})
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           proxy,
		Addr:              addr,
		ReadHeaderTimeout: cmd.Duration(fReadHeaderTimeout),
		WriteTimeout:      cmd.Duration(fWriteTimeout),
		IdleTimeout:       120 * time.Second,
		ErrorLog:          stdlog.New(logger.With().Str("server", serverName).Logger(), "", 0),
	}
	opts := []server.Option{server.WithListener(ln)}
	if httpsCerts := cmd.String(fHttpsCerts); httpsCerts != "" {
		opts = append(opts, server.WithTLS(
			filepath.Join(httpsCerts, "fullchain.pem"),
			filepath.Join(httpsCerts, "privkey.pem"),
		))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(server.ServeFn(srv, serverName, opts...))
	eg.Go(server.ShutdownFn(egCtx, srv, serverName, cmd.Duration(fShutdownTimeout)))

	err = eg.Wait()
	if err != nil {
		log.Err(err).Msg("server shut down returned an error")
	}
	return err
}

func check(_ context.Context, cmd *cli.Command) error {
	if _, err := setupLogger(cmd); err != nil {
		return err
	}
	rs, err := loadRules(cmd)
	if err != nil {
		return err
	}
	out, err := config.MarshalRules(rs)
	if err != nil {
		return err
	}
	_, err = cmd.Root().Writer.Write(out)
	return err
}

func setupLogger(cmd *cli.Command) (*zerolog.Logger, error) {
	level := logging.LevelFromVerbosity(cmd.Count(fVerbose))
	if s := cmd.String(fLogLevel); s != "" {
		l, err := zerolog.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", fLogLevel, err)
		}
		level = l
	}
	return logging.NewLogger(logging.Options{
		Level:  level,
		Format: cmd.String(fLogFormat),
		File:   cmd.String(fLogFile),
	})
}

// loadRules pairs the --from/--to flags, followed by the entries of the rules file.
func loadRules(cmd *cli.Command) (rules.Rules, error) {
	froms, tos := cmd.StringSlice(fFrom), cmd.StringSlice(fTo)
	if len(froms) != len(tos) {
		return rules.Rules{}, rules.ErrUnequalFromTo
	}

	var fileRules []config.RuleConfig
	if path := cmd.String(fRules); path != "" {
		var err error
		fileRules, err = config.LoadRulesFile(path)
		if err != nil {
			return rules.Rules{}, err
		}
	}

	froms, tos = config.Merge(froms, tos, fileRules)
	return rules.Parse(froms, tos)
}

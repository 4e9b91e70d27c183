package main

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

var (
	fListen            = "listen"
	fFrom              = "from"
	fTo                = "to"
	fRules             = "rules"
	fVerbose           = "verbose"
	fLogLevel          = "log_level"
	fLogFormat         = "log_format"
	fLogFile           = "log_file"
	fHttpsCerts        = "httpscerts"
	fDialTimeout       = "dial_timeout"
	fReadHeaderTimeout = "read_header_timeout"
	fWriteTimeout      = "write_timeout"
	fShutdownTimeout   = "shutdown_timeout"
	fTailnetHostname   = "tailnet_hostname"
	fTailnetStateDir   = "tailnet_state_dir"
	fTailnetFunnel     = "tailnet_funnel"
)
var profiles []string

func getFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "profile",
			Usage:       "YAML profile files that specify flags. Can be stacked from highest precedence to lowest.",
			TakesFile:   true,
			Destination: &profiles,
		},
		&cli.StringFlag{
			Name:    fListen,
			Aliases: []string{"l"},
			Usage:   "Address to listen on",
			Value:   "127.0.0.1:8080",
			Sources: getSources(fListen),
		},
		&cli.StringSliceFlag{
			Name:    fFrom,
			Aliases: []string{"f"},
			Usage:   "Path prefix to redirect from, e.g. /api/. Paired in order with --to",
		},
		&cli.StringSliceFlag{
			Name:    fTo,
			Aliases: []string{"t"},
			Usage:   "Destination to redirect to: http(s)://host/path/, file://dir/[|fallback] or status://code",
		},
		&cli.StringFlag{
			Name:      fRules,
			Usage:     "YAML, JSON or TOML file with a rules list of from/to pairs, matched after --from/--to",
			TakesFile: true,
			Sources:   getSources(fRules),
		},
		&cli.BoolFlag{
			Name:    fVerbose,
			Aliases: []string{"v"},
			Usage:   "Logging verbosity (-v info, -vv debug, -vvv trace)",
		},
		&cli.StringFlag{
			Name:    fLogLevel,
			Usage:   "Log level, overrides --verbose (trace, debug, info, warn, error)",
			Sources: getSources(fLogLevel),
		},
		&cli.StringFlag{
			Name:    fLogFormat,
			Usage:   "Log output format: console or json",
			Value:   "console",
			Sources: getSources(fLogFormat),
		},
		&cli.StringFlag{
			Name:      fLogFile,
			Usage:     "Also write JSON logs to this file, rotated by size",
			TakesFile: true,
			Sources:   getSources(fLogFile),
		},
		&cli.StringFlag{
			Name:    fHttpsCerts,
			Usage:   "The directory in which TLS certs can be found. Should contain fullchain.pem and privkey.pem",
			Sources: getSources(fHttpsCerts),
		},
		&cli.DurationFlag{
			Name:    fDialTimeout,
			Usage:   "How long to wait when connecting to an upstream",
			Value:   10 * time.Second,
			Sources: getSources(fDialTimeout),
		},
		&cli.DurationFlag{
			Name:    fReadHeaderTimeout,
			Usage:   "How long a client may take to send request headers",
			Value:   10 * time.Second,
			Sources: getSources(fReadHeaderTimeout),
		},
		&cli.DurationFlag{
			Name:    fWriteTimeout,
			Usage:   "Deadline for writing a whole response, 0 disables it",
			Sources: getSources(fWriteTimeout),
		},
		&cli.DurationFlag{
			Name:    fShutdownTimeout,
			Usage:   "How long in-flight requests get to finish on shutdown",
			Value:   10 * time.Second,
			Sources: getSources(fShutdownTimeout),
		},
		&cli.StringFlag{
			Name:    fTailnetHostname,
			Usage:   "Serve on a tailnet node with this hostname instead of a local socket. Authenticates with TS_AUTHKEY",
			Sources: getSources(fTailnetHostname),
		},
		&cli.StringFlag{
			Name:    fTailnetStateDir,
			Usage:   "Directory holding the tailnet node state",
			Sources: getSources(fTailnetStateDir),
		},
		&cli.BoolFlag{
			Name:    fTailnetFunnel,
			Usage:   "Expose the tailnet listener publicly with Funnel (listen on :443, :8443 or :10000)",
			Sources: getSources(fTailnetFunnel),
		},
	}
}

func getSources(name string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		cli.EnvVar("REDIRECTOR_"+strings.ToUpper(name)),
		&profilesSource{name: name},
	)
}

type profilesSource struct {
	name string
}

// GoString implements cli.ValueSource.
func (ps *profilesSource) GoString() string {
	return fmt.Sprintf("&profilesSource{name:%[1]q}", ps.name)
}

func (ps *profilesSource) String() string {
	return strings.Join(profiles, ",")
}

func (ps *profilesSource) Lookup() (string, bool) {
	sources := cli.ValueSourceChain{
		Chain: []cli.ValueSource{},
	}
	for i := range profiles {
		sources.Chain = append(
			sources.Chain,
			yaml.YAML(ps.name, altsrc.NewStringPtrSourcer(&profiles[i])),
		)
	}
	return sources.Lookup()
}

package main

import (
	"fmt"
	"io"

	"github.com/rpggio/tally/internal/config"
	"github.com/spf13/pflag"
)

type options struct {
	configPath string
	help       bool

	flags *pflag.FlagSet

	host      string
	port      int
	transport string
	driver    string
	storePath string
	format    string
	logLevel  string
	logPath   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("tally-server", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to YAML config file (default: $TALLY_CONFIG_PATH)")
	fs.StringVar(&opts.host, "host", "", "HTTP listen host")
	fs.IntVar(&opts.port, "port", 0, "HTTP listen port")
	fs.StringVar(&opts.transport, "transport", "", "transport mode: stdio or http")
	fs.StringVar(&opts.driver, "store", "", "store driver: sqlite or file")
	fs.StringVar(&opts.storePath, "store-path", "", "database or snapshot file path")
	fs.StringVar(&opts.format, "format", "", "snapshot format: json or cbor")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logPath, "log-path", "", "also write logs to this size-capped file")
	fs.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			opts.help = true
			opts.flags = fs
			return opts, nil
		}
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	opts.flags = fs
	return opts, nil
}

// apply overrides cfg with flags given explicitly on the command line.
func (o *options) apply(cfg *config.Config) {
	if o.flags.Changed("host") {
		cfg.Server.Host = o.host
	}
	if o.flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if o.flags.Changed("transport") {
		cfg.Transport.Mode = o.transport
	}
	if o.flags.Changed("store") {
		cfg.Store.Driver = o.driver
	}
	if o.flags.Changed("store-path") {
		cfg.Store.Path = o.storePath
	}
	if o.flags.Changed("format") {
		cfg.Store.Format = o.format
	}
	if o.flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if o.flags.Changed("log-path") {
		cfg.Log.Path = o.logPath
	}
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `tally-server keeps per-member score totals for games over MCP and JSON-RPC.

Usage:
  tally-server [flags]

Configuration is read from defaults, then the YAML file, then TALLY_* environment
variables, then these flags.

Flags:
%s`, fs.FlagUsages())
}

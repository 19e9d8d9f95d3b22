package main

import "flag"

// Options holds CLI options for the communicator.
type Options struct {
	ConfigPath string
	Kind       string
	Mode       string
	Bind       string
	Remote     string
}

// ParseFlags parses CLI flags from args and returns Options. Flags
// override the corresponding config file fields when set.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("moduri-comm", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.Kind, "kind", "", "Transport kind override: stream|datagram")
	fs.StringVar(&opts.Mode, "mode", "", "Stream role override: listen|connect")
	fs.StringVar(&opts.Bind, "bind", "", "Local bind address override (host:port)")
	fs.StringVar(&opts.Remote, "remote", "", "Remote address override for datagram or connect mode (host:port)")
	_ = fs.Parse(args)
	return opts
}

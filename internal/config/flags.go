package config

import (
	"flag"
	"fmt"
	"io"
)

// parseFlags parses command-line flags.
//
// Flags:
//
//	-a            listen address host:port
//	-mode         development | production
//	-c / -config  YAML config file path
//	-static       static asset directory
//	-docs         OpenAPI document path
//	-trust-proxy  key clients by X-Forwarded-For
func parseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Server.Address, "a", "", "Listen address host:port")
	fs.StringVar(&cfg.Mode, "mode", "", "Deployment mode (development|production)")
	fs.StringVar(&cfg.File, "c", "", "YAML config file path")
	fs.StringVar(&cfg.File, "config", "", "YAML config file path (alias)")
	fs.StringVar(&cfg.HTTP.StaticDir, "static", "", "Static asset directory")
	fs.StringVar(&cfg.HTTP.DocsFile, "docs", "", "OpenAPI document path")
	fs.BoolVar(&cfg.Server.TrustProxy, "trust-proxy", false, "Key clients by X-Forwarded-For")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	return cfg, nil
}

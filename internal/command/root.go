// Package command provides the CLI command definitions for servercheck.
//
// It uses urfave/cli/v2. Running without a command starts the TUI.
package command

import (
	"fmt"

	"github.com/seabattle/servercheck/internal/client"
	"github.com/seabattle/servercheck/internal/config"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "servercheck",
		Usage:   "Check and exercise a sea battle game server",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Action:  runTUI,
		Commands: []*cli.Command{
			TUICommand(),
			ServeCommand(),
			ProbeCommand(),
			ConfigCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML config file",
			EnvVars: []string{"SERVERCHECK_CONFIG"},
			Value:   "config.yaml",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Server host the client connects to (overrides client.host)",
		},
		&cli.StringFlag{
			Name:  "port",
			Usage: "Server port the client connects to (overrides client.port)",
		},
	}
}

// loadConfig reads the config file named by --config and applies flag
// overrides on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	applyOverrides(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("host") {
		cfg.Client.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Client.Port = c.String("port")
	}
}

func clientEndpoint(cfg *config.Config) client.Endpoint {
	return client.NewEndpoint(cfg.Client.Host, cfg.Client.Port)
}

// newHTTPClient bounds every request by the longest configured timeout; the
// probe and the controller apply the tighter per-call deadlines.
func newHTTPClient(cfg *config.Config, logger *zap.Logger) *client.HTTPClient {
	timeout := cfg.Client.RequestTimeout
	if cfg.Client.ProbeTimeout > timeout {
		timeout = cfg.Client.ProbeTimeout
	}
	return client.NewHTTPClient(timeout, Version, logger)
}

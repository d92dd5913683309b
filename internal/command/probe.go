package command

import (
	"fmt"

	"github.com/seabattle/servercheck/internal/logging"
	"github.com/seabattle/servercheck/internal/probe"
	"github.com/seabattle/servercheck/internal/session"
	"github.com/urfave/cli/v2"
)

// ProbeCommand returns the one-shot connection check.
func ProbeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Check once whether the server is reachable",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Probe timeout (overrides client.probe_timeout)",
			},
		},
		Action: runProbe,
	}
}

func runProbe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("timeout") {
		cfg.Client.ProbeTimeout = c.Duration("timeout")
	}

	logger, err := logging.New(cfg.Log, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p := probe.New(newHTTPClient(cfg, logger), logger)
	out := p.Probe(c.Context, clientEndpoint(cfg), cfg.Client.ProbeTimeout)

	report := session.Describe(out)
	fmt.Fprintln(c.App.Writer, report.Title)
	if report.Detail != "" {
		fmt.Fprintln(c.App.Writer, report.Detail)
	}
	if !out.OK() {
		return cli.Exit(fmt.Sprintf("probe failed: %s", out.Kind()), 1)
	}
	return nil
}

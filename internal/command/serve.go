package command

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/seabattle/servercheck/internal/logging"
	"github.com/seabattle/servercheck/internal/server"
	"github.com/urfave/cli/v2"
)

// ServeCommand returns the command that runs the game server API.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the game server HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bind",
				Usage: "Address to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "listen-port",
				Usage: "Port to listen on (overrides server.port)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("bind") {
		cfg.Server.Host = c.String("bind")
	}
	if c.IsSet("listen-port") {
		cfg.Server.Port = c.Int("listen-port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, logger).ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port)
}

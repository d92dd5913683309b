package command

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seabattle/servercheck/internal/app"
	"github.com/seabattle/servercheck/internal/config"
	"github.com/seabattle/servercheck/internal/logging"
	"github.com/seabattle/servercheck/internal/probe"
	"github.com/seabattle/servercheck/internal/session"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// TUICommand returns the interactive client command.
func TUICommand() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Run the interactive client (default)",
		Action: runTUI,
	}
}

// NewController wires the probe, the HTTP client and the renderer into a
// session controller configured from cfg.
func NewController(cfg *config.Config, logger *zap.Logger, renderer session.Renderer, emitter session.Emitter) *session.Controller {
	httpClient := newHTTPClient(cfg, logger)
	return session.NewController(
		probe.New(httpClient, logger),
		httpClient,
		renderer,
		session.WithEndpoint(clientEndpoint(cfg)),
		session.WithEmitter(emitter),
		session.WithLogger(logger),
		session.WithProbeTimeout(cfg.Client.ProbeTimeout),
		session.WithRequestTimeout(cfg.Client.RequestTimeout),
	)
}

func runTUI(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// The terminal belongs to the screen: log to file only.
	logger, err := logging.New(cfg.Log, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sink := app.NewSink()
	ctrl := NewController(cfg, logger, sink, sink)

	p := tea.NewProgram(app.New(ctrl), tea.WithAltScreen())
	sink.SetProgram(p)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	go func() {
		err := config.Watch(ctx, c.String("config"), logger, func(next *config.Config) {
			applyOverrides(c, next)
			sink.ConfigChanged(next)
		})
		if err != nil {
			logger.Warn("config watch stopped", zap.Error(err))
		}
	}()

	logger.Info("tui started", zap.String("endpoint", clientEndpoint(cfg).BaseURL()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ConfigCommand returns the command that prints the effective configuration.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}

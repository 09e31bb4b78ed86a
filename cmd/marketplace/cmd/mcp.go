package cmd

import (
	"github.com/spf13/cobra"

	"github.com/donaldgifford/marketplace/internal/mcphost"
)

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the command registry as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log := a.logger(a.cfg.Logging.Level)
			host := mcphost.New(a.dispatcher(log), a.cfg.MCP.Name, a.cfg.MCP.Version, log)
			if err := host.ServeStdio(); err != nil {
				return &exitError{code: ExitError, err: err}
			}
			return nil
		},
	}
}

package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/psyscore/internal/mcptools"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the survey operations as MCP tools over stdio",
		Long: `Starts an MCP server on stdin/stdout. Each tool takes the acting user's id
as its user_id argument, so run it only for trusted local clients. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			s := mcptools.NewServer(a.surveyService(store), version)
			a.logger.Info("mcp server ready", "db_driver", a.cfg.DB.Driver)
			return server.ServeStdio(s)
		},
	}
}

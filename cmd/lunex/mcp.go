package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lunex/internal/mcp"
	"github.com/Sumatoshi-tech/lunex/pkg/observability"
)

func mcpCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the compiler as tools that AI agents can discover
and invoke:
  - lunex_compile: Compile lunex source to Lua 5.4, or return a diagnostic
  - lunex_tokenize: Split lunex source into tokens`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.settings()
			if err != nil {
				return err
			}

			providers, shutdown, err := initObservability(cfg, observability.ModeMCP, root.verbose)
			if err != nil {
				return err
			}
			defer shutdown()

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			compiles, err := newCompileCache(cfg, newCompiler(providers))
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:   providers.Logger,
				Metrics:  red,
				Tracer:   providers.Tracer,
				Compiles: compiles,
			})

			return srv.Run(cmd.Context())
		},
	}

	return cmd
}

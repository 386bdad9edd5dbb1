package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lsp"
	"github.com/Sumatoshi-tech/lunex/pkg/observability"
)

func lspCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start language server for lunex sources (LSP)",
		Long: `Start a language server (LSP) for lunex sources in stdio mode.

Open documents are compiled on every change and compile errors are
published as diagnostics. Logs go to stderr.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := root.settings()
			if err != nil {
				return err
			}

			providers, shutdown, err := initObservability(cfg, observability.ModeLSP, root.verbose)
			if err != nil {
				return err
			}
			defer shutdown()

			compiles, err := newCompileCache(cfg, newCompiler(providers))
			if err != nil {
				return err
			}

			srv := lsp.NewServer(
				lsp.WithCompiles(compiles),
				lsp.WithOptions(lunex.Options{Debug: cfg.Compile.Debug, Indent: cfg.Compile.Indent}),
				lsp.WithLogger(providers.Logger),
			)

			return srv.Run()
		},
	}

	return cmd
}

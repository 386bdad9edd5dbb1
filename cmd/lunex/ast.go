package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

// ErrUnsupportedASTFmt is returned for an unknown --format value.
var ErrUnsupportedASTFmt = errors.New("unsupported format")

const formatYAML = "yaml"

func astCmd(root *rootOptions) *cobra.Command {
	var lowered bool

	var format string

	cmd := &cobra.Command{
		Use:   "ast [file]",
		Short: "Print the syntax tree of a lunex source",
		Long: `Print the syntax tree of a lunex source as JSON or YAML.

Examples:
  lunex ast main.lx                     # Tree as parsed
  lunex ast --lowered main.lx           # Tree after lowering to plain Lua
  lunex ast -f yaml main.lx             # YAML output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("%w: %s", ErrUnsupportedASTFmt, format)
			}

			cfg, err := root.settings()
			if err != nil {
				return err
			}

			name, src, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			res, err := lunex.Compile(cmd.Context(), src, lunex.Options{Debug: cfg.Compile.Debug, Indent: cfg.Compile.Indent})
			if err != nil {
				if d, ok := diag.As(err); ok {
					printDiagnostic(cmd.ErrOrStderr(), name, src, d)

					return fmt.Errorf("%w: %s", ErrCompileFailed, name)
				}

				return err
			}

			tree := res.AST
			if lowered {
				tree = res.Lowered
			}

			return writeTree(cmd.OutOrStdout(), ast.ToMap(tree), format)
		},
	}

	cmd.Flags().BoolVar(&lowered, "lowered", false, "print the tree after lowering")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, yaml)")

	return cmd
}

func writeTree(w io.Writer, tree map[string]any, format string) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

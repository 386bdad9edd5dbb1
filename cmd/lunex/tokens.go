package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

func tokensCmd(root *rootOptions) *cobra.Command {
	var skipErrors bool

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the tokens of a lunex source",
		Long: `Print the token sequence of a lunex source as a table.

Examples:
  lunex tokens main.lx                  # Tokenize a file
  cat main.lx | lunex tokens            # Tokenize stdin
  lunex tokens --skip-errors broken.lx  # Show malformed input as Invalid tokens`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := root.settings(); err != nil {
				return err
			}

			name, src, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			toks, err := lunex.Tokenize(src, skipErrors)
			if err != nil {
				if d, ok := diag.As(err); ok {
					printDiagnostic(cmd.ErrOrStderr(), name, src, d)

					return fmt.Errorf("%w: %s", ErrCompileFailed, name)
				}

				return err
			}

			return renderTokens(cmd.OutOrStdout(), toks)
		},
	}

	cmd.Flags().BoolVar(&skipErrors, "skip-errors", false, "emit Invalid tokens instead of failing")

	return cmd
}

func renderTokens(w io.Writer, toks []lexer.Token) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false

	tbl.AppendHeader(table.Row{"#", "Kind", "Text", "Location", "Span"})

	for i, tok := range toks {
		tbl.AppendRow(table.Row{
			i,
			tok.Kind.String(),
			sanitizeForTerminal(tok.String()),
			fmt.Sprintf("%d:%d-%d:%d", tok.Loc.StartLine, tok.Loc.StartCol, tok.Loc.EndLine, tok.Loc.EndCol),
			fmt.Sprintf("%d-%d", tok.Start, tok.End),
		})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d tokens", len(toks))})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}

// readInput reads the single file argument, or stdin without one.
func readInput(cmd *cobra.Command, args []string) (name, src string, err error) {
	if len(args) == 0 || args[0] == stdoutPath {
		data, readErr := readSource(cmd.InOrStdin(), stdinName)
		if readErr != nil {
			return "", "", readErr
		}

		return stdinName, string(data), nil
	}

	data, _, readErr := safeReadFile(args[0])
	if readErr != nil {
		return "", "", readErr
	}

	return args[0], string(data), nil
}

// Package main provides the lunex CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lunex/pkg/config"
	"github.com/Sumatoshi-tech/lunex/pkg/version"
)

// formatJSON is the constant for the "json" output format string.
const formatJSON = "json"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	cfgFile string
	verbose bool
}

// settings loads the configuration named by --config, or the default
// lookup when the flag is unset.
func (o *rootOptions) settings() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyColorMode(cfg.Output.Color)

	return cfg, nil
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "lunex",
		Short: "Compiler from the lunex dialect to plain Lua 5.4",
		Long: `lunex compiles an extended Lua 5.4 dialect (classes, arrow functions,
destructuring, template strings, safe navigation, async/await, import sugar,
mutation operators and shortcut conditionals) to plain Lua 5.4 source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./lunex.yaml or $HOME/.config/lunex/lunex.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(compileCmd(opts))
	rootCmd.AddCommand(tokensCmd(opts))
	rootCmd.AddCommand(astCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(lspCmd(opts))
	rootCmd.AddCommand(mcpCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}

	return cmd
}

// applyColorMode maps the output.color setting onto fatih/color. Auto keeps
// the library's terminal detection.
func applyColorMode(mode string) {
	switch mode {
	case "always":
		color.NoColor = false //nolint:reassign // intentional override of library global
	case "never":
		color.NoColor = true //nolint:reassign // intentional override of library global
	}
}

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/smartsearch/internal/config"
	"github.com/oakwood-commons/smartsearch/internal/formatter"
	"github.com/oakwood-commons/smartsearch/internal/ui"
	"github.com/oakwood-commons/smartsearch/pkg/logger"
)

// configCmd groups configuration-related subcommands similar to gh-style CLIs.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active field definitions",
	Long: `config prints the definitions in use (the --config file or the demo set)
with every option the file leaves out filled with its default.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		defs, err := loadDefinitions()
		if err != nil {
			return err
		}
		out, err := formatter.FormatYAML(defs.WithDefaults(), formatter.YAMLFormatOptions{LiteralBlockStrings: true})
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compile the definitions and report every error",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		run := runSettings()
		lgr, err := logger.Init(run.MinLogLevel, run.LogFile)
		if err != nil {
			return err
		}
		engine, err := newEngine(run, *lgr)
		if err != nil {
			return err
		}
		cfg := engine.Config()
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d fields, %d functions, operators %s\n",
			len(cfg.Fields), len(cfg.Functions), cfg.Operators)
		return err
	},
}

var configThemesCmd = &cobra.Command{
	Use:     "themes",
	Aliases: []string{"theme"},
	Short:   "List available themes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		names := make([]string, 0, len(ui.ThemePresets))
		for name := range ui.ThemePresets {
			names = append(names, name)
		}
		sort.Strings(names)
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Available themes (default: dark):") //nolint:errcheck
		for _, name := range names {
			fmt.Fprintf(w, " - %s\n", name) //nolint:errcheck
		}
		return nil
	},
}

func loadDefinitions() (*config.Definitions, error) {
	if definitionsFile != "" {
		return config.Load(definitionsFile)
	}
	return config.Parse(demoDefinitions, ".")
}

func init() { //nolint:gochecknoinits
	configCmd.AddCommand(configCheckCmd, configThemesCmd)
}

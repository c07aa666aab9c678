package cmd

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/smartsearch/pkg/settings"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print smartsearch version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return err
	},
}

// cliVersionString builds a human-readable version string for CLI output and Cobra's --version flag.
func cliVersionString() string {
	info := settings.VersionInformation
	version := info.BuildVersion
	if bi, ok := rdebug.ReadBuildInfo(); ok && version == "v0.0.0-nightly" &&
		bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		version = bi.Main.Version
	}
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)",
		settings.CliBinaryName, version, info.Commit, info.BuildTime, runtime.Version())
}

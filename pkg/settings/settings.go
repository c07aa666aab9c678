// Package settings holds build metadata and the per-run options of the
// smartsearch CLI, and carries them through a context.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "smartsearch"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the options of a single invocation.
type Run struct {
	MinLogLevel int8
	// LogFile receives log output while the search bar owns the terminal.
	LogFile string
	// DefinitionsPath is the field definitions file, empty for the built-in demo set.
	DefinitionsPath string
	IsQuiet         bool
	NoColor         bool
	ExitOnError     bool
}

// NewCliParams returns the defaults used by the CLI.
func NewCliParams() *Run {
	return &Run{ExitOnError: true}
}

// Interactive reports whether logs must stay off the terminal.
func (r *Run) Interactive() bool {
	return r.LogFile != ""
}

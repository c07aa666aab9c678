package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/smartsearch/internal/formatter"
	"github.com/oakwood-commons/smartsearch/pkg/core"
	"github.com/oakwood-commons/smartsearch/pkg/logger"
	"github.com/oakwood-commons/smartsearch/pkg/search"
	"github.com/oakwood-commons/smartsearch/pkg/settings"
	"github.com/oakwood-commons/smartsearch/pkg/tui"
)

var (
	definitionsFile string
	operatorMode    string
	freeText        bool
	output          string
	noColor         bool
	quiet           bool
	debug           bool
	logLevel        int8
	logFile         string
	themeName       string
	themeFile       string
	startKeys       []string
	renderSnapshot  bool
	snapshotWidth   int
	snapshotHeight  int
	limitRecords    int
	offsetRecords   int
	tailRecords     int
)

var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
	newResizeTicker  = func(d time.Duration) resizeTicker { return realResizeTicker{Ticker: time.NewTicker(d)} }
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
	runProgram       = tui.Run
)

type resizeTicker interface {
	C() <-chan time.Time
	Stop()
}

type realResizeTicker struct {
	*time.Ticker
}

func (t realResizeTicker) C() <-chan time.Time { return t.Ticker.C }

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "Build search filters as a row of clauses with completion",
	Long: `smartsearch opens a search bar that turns typed text into clauses. Each
clause is matched against the configured fields, offered as a drop-down of
options and committed with Enter. Clauses are joined with and/or and may be
grouped with brackets. Enter on an empty editor completes the search and
prints the clauses.

Without --config a demo set of book, author, price, year and tag fields is used.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSearch,
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if err := formatter.ValidateOutput(output); err != nil {
		return err
	}
	run := runSettings()
	ctx := settings.IntoContext(cmd.Context(), run)

	// The bar owns the terminal, so logs only go to a file while it runs.
	lgr := logger.GetNoopLogger()
	if renderSnapshot || run.Interactive() {
		var err error
		if lgr, err = logger.Init(run.MinLogLevel, run.LogFile); err != nil {
			return err
		}
	}
	ctx = logger.WithLogger(ctx, lgr)

	engine, err := newEngine(run, *lgr)
	if err != nil {
		return err
	}
	tc := tuiConfig(ctx, *lgr)

	if renderSnapshot {
		tc.Width, tc.Height = snapshotSize(snapshotWidth, snapshotHeight)
		tc.HelpVisible = !engine.Config().HideHelp
		view, _ := tui.RenderSnapshot(engine.Config(), tc)
		fmt.Fprintln(cmd.OutOrStdout(), view) //nolint:errcheck
		return nil
	}

	tc.Width, tc.Height = snapshotWidth, snapshotHeight
	opts, cleanup := getProgramOptions()
	defer cleanup()
	res, err := runProgram(engine.Config(), tc, opts...)
	if err != nil {
		return fmt.Errorf("running search bar: %w", err)
	}
	if !res.Completed {
		lgr.V(1).Info("search closed without completing", "clauses", len(res.Matchers))
		return nil
	}
	width, _ := detectTerminalSize()
	return printClauses(cmd.OutOrStdout(), engine, res.Matchers, res.Function, width)
}

func runSettings() *settings.Run {
	run := settings.NewCliParams()
	run.MinLogLevel = logLevel
	run.LogFile = logFile
	run.DefinitionsPath = definitionsFile
	run.IsQuiet = quiet
	run.NoColor = noColor
	return run
}

func tuiConfig(ctx context.Context, lgr logr.Logger) tui.Config {
	tc := tui.DefaultConfig()
	tc.NoColor = noColor
	tc.DebugEnabled = debug
	tc.StartKeys = startKeys
	tc.ThemeFile = themeFile
	if themeName != "" {
		tc.ThemeName = themeName
	}
	tc.Logger = lgr
	tc.Context = ctx
	return tc
}

// newEngine resolves the definitions file, or the demo set, and applies the
// command-line overrides on top.
func newEngine(run *settings.Run, lgr logr.Logger) (*core.Engine, error) {
	opts := []core.Option{core.WithLogger(lgr)}
	if run.DefinitionsPath != "" {
		opts = append(opts, core.WithDefinitionsFile(run.DefinitionsPath))
	} else {
		opts = append(opts, core.WithDefinitionsText(demoDefinitions, "."))
	}
	var cfgOpts []search.ConfigOption
	if operatorMode != "" {
		mode, err := search.ParseOperatorMode(operatorMode)
		if err != nil {
			return nil, err
		}
		cfgOpts = append(cfgOpts, search.WithOperators(mode))
	}
	if freeText {
		cfgOpts = append(cfgOpts, search.WithFreeText(true))
	}
	opts = append(opts, core.WithConfigOptions(cfgOpts...))
	return core.New(opts...)
}

func printClauses(w io.Writer, engine *core.Engine, ms []search.Matcher, function string, width int) error {
	out, err := engine.Render(ms, function, output, noColor, width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// snapshotSize fills an unset width from the terminal. An unset height keeps
// the frame at its natural height.
func snapshotSize(flagWidth, flagHeight int) (int, int) {
	width := flagWidth
	if width <= 0 {
		width, _ = detectTerminalSize()
	}
	if width <= 0 {
		width = 80
	}
	return width, max(flagHeight, 0)
}

const defaultFallbackTermWidth = 120

// detectTerminalSize returns the best-effort terminal width/height by probing
// stdout, stderr, and stdin, then falling back to $COLUMNS.
func detectTerminalSize() (int, int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := termGetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 0
}

// getProgramOptions handles piped stdin by reopening the terminal for interactive input/output.
// Returns tea.ProgramOption values (plus a cleanup) that should be passed to tea.NewProgram.
func getProgramOptions() ([]tea.ProgramOption, func()) {
	cleanup := func() {}
	if !stdinIsPiped() {
		return nil, cleanup
	}

	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		// No terminal device (e.g. CI): keep stdin, arrow keys and resize won't work.
		return nil, cleanup
	}
	cleanup = func() {
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut), withTTYResizeWatcher(ctx, ttyOut))
	}

	return opts, func() {
		cancel()
		cleanup()
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	if out == "" || out == in {
		return input, input, nil
	}
	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		return input, nil, err
	}
	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

// withTTYResizeWatcher polls the terminal size and sends resize messages when
// signals are unreliable. It stops when ctx is canceled.
func withTTYResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if ctx == nil || out == nil {
			return
		}
		go func() {
			t := newResizeTicker(250 * time.Millisecond)
			defer t.Stop()

			lastW, lastH := 0, 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C():
					w, h, err := termGetSize(int(out.Fd()))
					if err != nil || (w == lastW && h == lastH) {
						continue
					}
					lastW, lastH = w, h
					sendWindowSize(p, tea.WindowSizeMsg{Width: w, Height: h})
				}
			}
		}()
	}
}

func init() { //nolint:gochecknoinits
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&definitionsFile, "config", "c", "", "field definitions file (YAML, JSON or TOML); the demo fields are used when unset")
	pf.StringVar(&operatorMode, "operators", "", "operator mode: Simple|AgGrid|Complex (default from definitions)")
	pf.BoolVar(&freeText, "free-text", false, "accept clauses that match no field")
	pf.StringVarP(&output, "output", "o", formatter.OutputTable, "output format: table|yaml|json|toml|text|tree")
	pf.BoolVar(&noColor, "no-color", false, "disable color output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress informational messages")
	pf.Int8Var(&logLevel, "log-level", 1, "minimum log level: -1 debug, 0 info, 1 warn, 2 error")
	pf.StringVar(&logFile, "log-file", "", "append logs to this file (the search bar only logs to a file)")

	rootCmd.Flags().BoolVar(&debug, "debug", false, "show debug info below the search bar")
	rootCmd.Flags().StringVar(&themeName, "theme", "", "theme name (see 'smartsearch config themes')")
	rootCmd.Flags().StringVar(&themeFile, "theme-file", "", "theme file overriding colors of a base theme")
	rootCmd.Flags().StringArrayVar(&startKeys, "press", nil, "Simulate keys on startup. Use <Key> for special keys (e.g. <CR>, <S-Left>, <C-BS>, <Paste:text>). Literal text types normally.")
	rootCmd.Flags().BoolVar(&renderSnapshot, "snapshot", false, "render a single frame of the search bar and exit; honors --press, --width and --height")
	rootCmd.Flags().IntVar(&snapshotWidth, "width", 0, "width in columns (default: terminal width)")
	rootCmd.Flags().IntVar(&snapshotHeight, "height", 0, "height in rows (default: terminal height, natural height for --snapshot)")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd, parseCmd, configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

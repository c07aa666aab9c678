package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/smartsearch/internal/formatter"
	"github.com/oakwood-commons/smartsearch/internal/limiter"
	"github.com/oakwood-commons/smartsearch/pkg/logger"
	"github.com/oakwood-commons/smartsearch/pkg/search"
	"github.com/oakwood-commons/smartsearch/pkg/settings"
)

var parseCmd = &cobra.Command{
	Use:   "parse [text...]",
	Short: "Match pasted text against the fields and print the clauses",
	Long: `parse runs text through the same pipeline as pasting into the search bar:
it is split into tokens, operators and brackets are recognized and every token
is matched against the fields that match on paste. Without arguments the text
is read from stdin.`,
	Example: `  smartsearch parse 'Dune | Emma >12'
  echo 'Trade Dune 20' | smartsearch parse -o yaml`,
	SilenceUsage: true,
	RunE:         runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	if err := formatter.ValidateOutput(output); err != nil {
		return err
	}
	if err := validateLimitingFlags(); err != nil {
		return err
	}
	text, err := parseInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	run := runSettings()
	lgr, err := logger.Init(run.MinLogLevel, run.LogFile)
	if err != nil {
		return err
	}
	ctx := logger.WithLogger(settings.IntoContext(cmd.Context(), run), lgr)

	engine, err := newEngine(run, *lgr)
	if err != nil {
		return err
	}
	ms, fn := engine.Parse(ctx, text)
	ms = applyLimiting(ms)
	if len(ms) == 0 && fn == "" {
		if !run.IsQuiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "no clauses matched") //nolint:errcheck
		}
		return nil
	}
	width, _ := detectTerminalSize()
	return printClauses(cmd.OutOrStdout(), engine, ms, fn, width)
}

// parseInput joins the arguments, or reads stdin when there are none.
func parseInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && f == os.Stdin && !stdinIsPiped() {
		return "", fmt.Errorf("no text given: pass it as arguments or pipe it on stdin")
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("no text given: pass it as arguments or pipe it on stdin")
	}
	return text, nil
}

// validateLimitingFlags checks that limiting flags are not in conflict and returns an error if they are.
func validateLimitingFlags() error {
	return limitConfig().Validate()
}

// applyLimiting keeps the clause window selected by --limit, --offset and --tail.
func applyLimiting(ms []search.Matcher) []search.Matcher {
	cfg := limitConfig()
	if !cfg.IsActive() {
		return ms
	}
	return limiter.Slice(cfg, ms)
}

func limitConfig() limiter.Config {
	return limiter.Config{
		Limit:  limitRecords,
		Offset: offsetRecords,
		Tail:   tailRecords,
	}
}

func init() { //nolint:gochecknoinits
	parseCmd.Flags().IntVar(&limitRecords, "limit", 0, "Limit the number of clauses printed")
	parseCmd.Flags().IntVar(&offsetRecords, "offset", 0, "Skip the first N clauses")
	parseCmd.Flags().IntVar(&tailRecords, "tail", 0, "Print the last N clauses (mutually exclusive with --limit; ignores --offset)")
}

package tui

import "github.com/oakwood-commons/smartsearch/internal/ui"

// CopyToClipboard copies text to the system clipboard. Hosts can use it to
// hand the result of a search to the user:
//
//	res, _ := tui.Run(cfg, tui.DefaultConfig())
//	_ = tui.CopyToClipboard(search.CopyText(res.Matchers, res.Function, cfg))
func CopyToClipboard(text string) error {
	return ui.CopyToClipboard(text)
}

// ReadClipboard returns the system clipboard's text.
func ReadClipboard() (string, error) {
	return ui.ReadClipboard()
}

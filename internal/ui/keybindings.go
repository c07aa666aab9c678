package ui

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// KeyMap holds the bar-level bindings. Everything else goes to the clause
// editor and the clause list.
type KeyMap struct {
	Quit  key.Binding
	Copy  key.Binding
	Paste key.Binding
	Help  key.Binding
}

// DefaultKeyMap returns the default bar bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Copy:  key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Paste: key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
		Help:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	}
}

// helpEntries is the one-line help shown under the bar, in order.
var helpEntries = [][2]string{
	{"enter", "select"},
	{"shift+enter", "insert"},
	{"↑/↓", "options"},
	{"shift+←/→", "clauses"},
	{"ctrl+←/→", "move"},
	{"ctrl+bs", "clear"},
}

// searchKeyCodes maps terminal keys onto the keys the engine reacts to.
var searchKeyCodes = map[rune]search.KeyCode{
	tea.KeyLeft:      search.KeyLeft,
	tea.KeyRight:     search.KeyRight,
	tea.KeyUp:        search.KeyUp,
	tea.KeyDown:      search.KeyDown,
	tea.KeyPgUp:      search.KeyPageUp,
	tea.KeyPgDown:    search.KeyPageDown,
	tea.KeyHome:      search.KeyHome,
	tea.KeyEnd:       search.KeyEnd,
	tea.KeyEnter:     search.KeyEnter,
	tea.KeyTab:       search.KeyTab,
	tea.KeyBackspace: search.KeyBackspace,
	tea.KeyEscape:    search.KeyEscape,
}

// searchKey translates a key press. Printable keys report false.
func searchKey(msg tea.KeyPressMsg) (search.Key, bool) {
	k := msg.Key()
	code, ok := searchKeyCodes[k.Code]
	if !ok {
		return search.Key{}, false
	}
	return search.Key{
		Code:  code,
		Shift: k.Mod&tea.ModShift != 0,
		Ctrl:  k.Mod&tea.ModCtrl != 0,
		Alt:   k.Mod&tea.ModAlt != 0,
	}, true
}

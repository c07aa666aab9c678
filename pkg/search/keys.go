package search

// KeyCode names the keys the engine reacts to.
type KeyCode int

const (
	KeyNone KeyCode = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
)

var keyNames = map[KeyCode]string{
	KeyNone:      "none",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdown",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyEscape:    "esc",
}

func (k KeyCode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Key is a key press with its modifiers.
type Key struct {
	Code  KeyCode
	Shift bool
	Ctrl  bool
	Alt   bool
}

// Plain reports whether no modifier is held.
func (k Key) Plain() bool {
	return !k.Shift && !k.Ctrl && !k.Alt
}

func (k Key) String() string {
	s := k.Code.String()
	if k.Shift {
		s = "shift+" + s
	}
	if k.Alt {
		s = "alt+" + s
	}
	if k.Ctrl {
		s = "ctrl+" + s
	}
	return s
}

package search

// Navigation over the flattened option list. Every function takes the current
// active index (-1 for none) and returns the new one.

// NextOption moves down one option, wrapping to the top.
func NextOption(active, total int) int {
	if total == 0 {
		return -1
	}
	if active < 0 {
		return 0
	}
	if active < total-1 {
		return active + 1
	}
	return 0
}

// PrevOption moves up one option, wrapping to the bottom.
func PrevOption(active, total int) int {
	if total == 0 {
		return -1
	}
	if active < 0 {
		return 0
	}
	if active > 0 {
		return active - 1
	}
	return total - 1
}

// PageDownOption jumps to the nearest option below whose source differs from the
// active one. The index is unchanged when every following option shares it.
func PageDownOption(options []Option, active int) int {
	if len(options) == 0 {
		return -1
	}
	if active < 0 {
		active = 0
	}
	source := options[active].Source
	for i := active; i < len(options); i++ {
		if options[i].Source != source {
			return i
		}
	}
	return active
}

// PageUpOption jumps to the nearest option above whose source differs from the active one.
func PageUpOption(options []Option, active int) int {
	if len(options) == 0 {
		return -1
	}
	if active < 0 {
		active = 0
	}
	source := options[active].Source
	for i := active; i >= 0; i-- {
		if options[i].Source != source {
			return i
		}
	}
	return active
}

// HomeOption selects the first option.
func HomeOption(total int) int {
	if total == 0 {
		return -1
	}
	return 0
}

// EndOption selects the last option.
func EndOption(total int) int {
	return total - 1
}

// WindowEntry is one option around the active one, with the navigation keys
// that would land on it.
type WindowEntry struct {
	Option
	Index int
	Hint  string
}

// OptionWindow is the visible slice of the option list: up to N options before
// and after the active one, taken circularly.
type OptionWindow struct {
	Before []WindowEntry
	Active WindowEntry
	After  []WindowEntry
}

// WindowSize is how many options are shown on each side of the active one.
func WindowSize(total int) int {
	if total > 10 {
		return 5
	}
	return (total - 1) / 2
}

// Window computes the emphasised options around active.
func Window(options []Option, active int) OptionWindow {
	total := len(options)
	if total == 0 || active < 0 || active >= total {
		return OptionWindow{Active: WindowEntry{Index: -1}}
	}
	pageUp := PageUpOption(options, active)
	if pageUp == active {
		pageUp = -1
	}
	pageDown := PageDownOption(options, active)
	if pageDown == active {
		pageDown = -1
	}
	source := options[active].Source
	entry := func(i int) WindowEntry {
		hint := ""
		switch {
		case i == 0 && options[i].Source != source:
			hint = "Home"
		case i == total-1 && options[i].Source != source:
			hint = "End"
		}
		page := ""
		switch i {
		case pageUp:
			page = "PgUp"
		case pageDown:
			page = "PgDown"
		}
		switch {
		case hint != "" && page != "":
			hint += " / " + page
		case page != "":
			hint = page
		}
		return WindowEntry{Option: options[i], Index: i, Hint: hint}
	}

	size := WindowSize(total)
	w := OptionWindow{Active: WindowEntry{Option: options[active], Index: active}}
	for n := size; n > 0; n-- {
		w.Before = append(w.Before, entry((active-n+total)%total))
	}
	for n := 1; n <= size; n++ {
		w.After = append(w.After, entry((active+n)%total))
	}
	return w
}

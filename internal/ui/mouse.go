package ui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/smartsearch/pkg/search"
)

// dragState tracks a chip being dragged across the bar.
type dragState struct {
	active   bool
	moved    bool
	from     int
	over     int
	transfer *search.MemoryTransfer
}

// chipAt returns the bar element under column x of the bar line.
func (m *Model) chipAt(x int) (barSpan, bool) {
	for _, s := range m.barSpans() {
		if x >= s.start && x < s.end {
			return s, true
		}
	}
	return barSpan{}, false
}

// mouseClick starts a drag on a chip, clears everything on the clear chip, or
// picks an option from the list.
func (m *Model) mouseClick(mouse tea.Mouse) tea.Cmd {
	if mouse.Button != tea.MouseLeft {
		return nil
	}
	if mouse.Y == 0 {
		s, ok := m.chipAt(mouse.X)
		if !ok {
			return nil
		}
		switch {
		case s.index == spanClear:
			m.Controller.DeleteAll()
			m.syncEditor()
		case s.index >= 0:
			ms := m.Controller.Matchers()
			dt := search.NewMemoryTransfer()
			if m.Controller.DragStart(dt, ms[s.index]) {
				m.drag = dragState{active: true, from: s.index, over: s.index, transfer: dt}
			}
		}
		return nil
	}

	row := mouse.Y - m.optionsTop()
	rows := m.optionRows()
	if row < 0 || row >= len(rows) || rows[row].kind != rowOption {
		return nil
	}
	intents := m.editor.Select(rows[row].index, mouse.Mod&tea.ModShift != 0)
	m.apply(intents)
	return nil
}

// mouseMotion follows a drag, marking the chip that would accept the drop.
func (m *Model) mouseMotion(mouse tea.Mouse) {
	if !m.drag.active {
		return
	}
	m.drag.over = -1
	if mouse.Y != 0 {
		return
	}
	s, ok := m.chipAt(mouse.X)
	if !ok || s.index < 0 {
		return
	}
	if s.index != m.drag.from {
		m.drag.moved = true
	}
	ms := m.Controller.Matchers()
	if m.Controller.DragOver(m.drag.transfer, ms[s.index]) {
		m.drag.over = s.index
	}
}

// mouseRelease drops a dragged chip onto another one. A release on the chip
// the drag started from is a click and opens that clause for editing.
func (m *Model) mouseRelease(mouse tea.Mouse) {
	if !m.drag.active {
		return
	}
	drag := m.drag
	m.drag = dragState{}
	if mouse.Y != 0 {
		return
	}
	s, ok := m.chipAt(mouse.X)
	if !ok || s.index < 0 {
		return
	}
	ms := m.Controller.Matchers()
	if s.index == drag.from && !drag.moved {
		m.Controller.SelectMatcher(s.index)
		m.syncEditor()
		return
	}
	if m.Controller.DragOver(drag.transfer, ms[s.index]) && m.Controller.Drop(drag.transfer, ms[s.index]) {
		m.Status = "moved " + search.Display(ms[drag.from], false, m.Controller.Config())
		m.syncEditor()
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/msgthread/internal/store"
)

// boxSelectedMsg is sent when the user selects a box via Enter.
type boxSelectedMsg struct {
	box store.Box
}

// boxOrder defines the display order of the sidebar.
var boxOrder = []store.Box{
	store.BoxInbox,
	store.BoxSent,
	store.BoxDeleted,
}

var boxNames = map[store.Box]string{
	store.BoxInbox:   "Inbox",
	store.BoxSent:    "Sent",
	store.BoxDeleted: "Deleted",
}

// sidebarModel displays the acting participant and a navigable list of boxes.
type sidebarModel struct {
	cursor      int
	activeBox   store.Box
	participant string
	width       int
	height      int
	focused     bool
}

func newSidebar() sidebarModel {
	return sidebarModel{activeBox: store.BoxInbox}
}

// SetSize updates the sidebar dimensions.
func (s *sidebarModel) SetSize(w, h int) {
	s.width = w
	s.height = h
}

// Update handles key events for sidebar navigation.
func (s sidebarModel) Update(msg tea.Msg) (sidebarModel, tea.Cmd) {
	if !s.focused {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			s.cursor--
			if s.cursor < 0 {
				s.cursor = len(boxOrder) - 1
			}
		case key.Matches(msg, keys.Down):
			s.cursor++
			if s.cursor >= len(boxOrder) {
				s.cursor = 0
			}
		case key.Matches(msg, keys.Enter):
			box := boxOrder[s.cursor]
			s.activeBox = box
			return s, func() tea.Msg {
				return boxSelectedMsg{box: box}
			}
		}
	}

	return s, nil
}

// View renders the sidebar.
func (s sidebarModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("msgthread"))
	b.WriteString("\n")
	if s.participant != "" {
		b.WriteString(mutedTextStyle.Render(truncate(s.participant, max(s.width, 10))))
	}
	b.WriteString("\n")

	for i, box := range boxOrder {
		b.WriteString(s.renderLine(boxNames[box], box, i))
		b.WriteString("\n")
	}

	return b.String()
}

// renderLine renders a single box line with cursor highlighting and active marker.
func (s sidebarModel) renderLine(name string, box store.Box, idx int) string {
	prefix := "  "
	if box == s.activeBox {
		prefix = "▶ "
	}

	// Pad to width so highlight covers the full line.
	padded := lipgloss.NewStyle().Width(max(s.width, 10)).Render(fmt.Sprintf("%s%s", prefix, name))

	if s.focused && idx == s.cursor {
		return selectedStyle.Render(padded)
	}
	return padded
}

// reset returns the sidebar to the inbox, keeping size and focus.
func (s *sidebarModel) reset() {
	s.activeBox = store.BoxInbox
	s.cursor = 0
}

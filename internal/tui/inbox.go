package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/msgthread/internal/store"
	"github.com/mattn/go-runewidth"
)

// Messages emitted by inboxModel.

type threadSelectedMsg struct {
	threadID string
}

type threadActionMsg struct {
	threadID string
	action   string
}

// inboxModel is a Bubble Tea sub-model that displays the thread list of the
// active box.
type inboxModel struct {
	threads []store.ThreadSummary
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

func newInbox() inboxModel {
	return inboxModel{}
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.threads)-1 {
				m.cursor++
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Enter):
			if id := m.SelectedThreadID(); id != "" {
				return m, func() tea.Msg {
					return threadSelectedMsg{threadID: id}
				}
			}

		case key.Matches(msg, keys.Delete):
			return m, m.actionCmd("delete")

		case key.Matches(msg, keys.Unread):
			return m, m.actionCmd("unread")
		}
	}

	return m, nil
}

func (m inboxModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if len(m.threads) == 0 {
		return mutedTextStyle.Render("No threads")
	}

	var b strings.Builder
	end := min(m.offset+m.visibleRows(), len(m.threads))
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		line := renderSummaryRow(m.threads[i], m.width)
		if i == m.cursor && m.focused {
			line = selectedStyle.Width(m.width).Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

// SetThreads replaces the listed threads.
func (m *inboxModel) SetThreads(threads []store.ThreadSummary) {
	m.threads = threads
	m.clampCursor()
}

// SetSize updates the dimensions available for rendering.
func (m *inboxModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.adjustScroll()
}

// SelectedThreadID returns the ID of the highlighted thread.
func (m inboxModel) SelectedThreadID() string {
	if len(m.threads) == 0 || m.cursor >= len(m.threads) {
		return ""
	}
	return m.threads[m.cursor].ID
}

// --- internal helpers ---

func (m inboxModel) visibleRows() int {
	return max(m.height, 1)
}

func (m *inboxModel) adjustScroll() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *inboxModel) clampCursor() {
	if len(m.threads) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.threads) {
		m.cursor = len(m.threads) - 1
	}
	m.adjustScroll()
}

func (m inboxModel) actionCmd(action string) tea.Cmd {
	id := m.SelectedThreadID()
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		return threadActionMsg{threadID: id, action: action}
	}
}

// --- utility functions ---

// renderSummaryRow lays out marker, message count, subject and date in width
// cells. Shared by the box list and search results.
func renderSummaryRow(t store.ThreadSummary, width int) string {
	mark := "  "
	if t.HasUnread {
		mark = unreadMarkStyle.Render("● ")
	}

	count := fmt.Sprintf("(%d)", t.MessageCount)
	date := relativeDate(t.LastActivity)

	countWidth := len(count) + 1
	dateWidth := len(date)
	subjectWidth := max(width-countWidth-dateWidth-4, 10) // mark(2) + gap(2)

	subjectCol := lipgloss.NewStyle().Width(subjectWidth).Render(truncate(t.Subject, subjectWidth))
	countCol := mutedTextStyle.Render(count + " ")
	dateCol := mutedTextStyle.Width(dateWidth).Render(date)

	line := mark + countCol + subjectCol + "  " + dateCol
	if t.HasUnread {
		line = unreadStyle.Render(line)
	}
	return line
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxLen, "…")
}

func relativeDate(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	t := time.Unix(ts, 0)
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

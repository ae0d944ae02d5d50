package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lu-zhengda/msgthread/internal/domain"
)

// Messages emitted by readerModel.

type replyMsg struct {
	thread *domain.Thread
}

type closeReaderMsg struct{}

// readerModel is a Bubble Tea sub-model that shows one thread in a
// scrollable pane, seen from the viewer's side.
type readerModel struct {
	thread       *domain.Thread
	viewer       domain.ParticipantID
	dateFormat   string
	content      string
	scrollOffset int
	maxScroll    int
	width        int
	height       int
	focused      bool
	visible      bool
}

func newReader(dateFormat string) readerModel {
	return readerModel{dateFormat: dateFormat}
}

func (r readerModel) Update(msg tea.Msg) (readerModel, tea.Cmd) {
	if !r.focused || !r.visible || r.thread == nil {
		return r, nil
	}

	msgKey, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}

	id := r.thread.ID
	switch {
	case key.Matches(msgKey, keys.Up):
		if r.scrollOffset > 0 {
			r.scrollOffset--
		}

	case key.Matches(msgKey, keys.Down):
		if r.scrollOffset < r.maxScroll {
			r.scrollOffset++
		}

	case key.Matches(msgKey, keys.Back):
		return r, func() tea.Msg { return closeReaderMsg{} }

	case key.Matches(msgKey, keys.Reply):
		thread := r.thread
		return r, func() tea.Msg { return replyMsg{thread: thread} }

	case key.Matches(msgKey, keys.Delete):
		return r, func() tea.Msg { return threadActionMsg{threadID: id, action: "delete"} }

	case key.Matches(msgKey, keys.Unread):
		return r, func() tea.Msg { return threadActionMsg{threadID: id, action: "unread"} }
	}

	return r, nil
}

func (r readerModel) View() string {
	if !r.visible || r.width == 0 || r.height == 0 {
		return ""
	}
	if r.content == "" {
		return mutedTextStyle.Render("No thread selected")
	}

	lines := strings.Split(r.content, "\n")
	start := min(r.scrollOffset, len(lines))
	end := min(r.scrollOffset+max(r.height, 1), len(lines))
	return strings.Join(lines[start:end], "\n")
}

// ShowThread displays a thread for the given viewer.
func (r *readerModel) ShowThread(thread *domain.Thread, viewer domain.ParticipantID) {
	r.thread = thread
	r.viewer = viewer
	r.visible = true
	r.scrollOffset = 0
	r.content = renderThread(thread, viewer, r.dateFormat, r.width)
	r.recalcMaxScroll()
}

// Close hides the reader and clears its content.
func (r *readerModel) Close() {
	r.visible = false
	r.thread = nil
	r.content = ""
	r.scrollOffset = 0
	r.maxScroll = 0
}

// SetSize updates the reader dimensions and recalculates scroll bounds.
func (r *readerModel) SetSize(w, h int) {
	r.width = w
	r.height = h
	if r.thread != nil {
		r.content = renderThread(r.thread, r.viewer, r.dateFormat, r.width)
	}
	r.recalcMaxScroll()
}

// IsVisible returns whether the reader pane is currently shown.
func (r readerModel) IsVisible() bool {
	return r.visible
}

// ThreadID returns the ID of the displayed thread, or "".
func (r readerModel) ThreadID() string {
	if r.thread == nil {
		return ""
	}
	return r.thread.ID
}

func (r *readerModel) recalcMaxScroll() {
	if r.content == "" {
		r.maxScroll = 0
		r.scrollOffset = 0
		return
	}
	lines := strings.Count(r.content, "\n") + 1
	r.maxScroll = max(lines-max(r.height, 1), 0)
	r.scrollOffset = min(r.scrollOffset, r.maxScroll)
}

// renderThread formats the thread header followed by every message in append
// order. Messages the viewer has not read yet carry a marker.
func renderThread(thread *domain.Thread, viewer domain.ParticipantID, dateFormat string, width int) string {
	var b strings.Builder
	sep := mutedTextStyle.Render(strings.Repeat("─", max(width, 20)))

	b.WriteString(titleStyle.Render(thread.Subject))
	b.WriteByte('\n')

	names := make([]string, 0, len(thread.Participants()))
	for _, p := range thread.Participants() {
		names = append(names, p.String())
	}
	b.WriteString(mutedTextStyle.Render("With:    "))
	b.WriteString(strings.Join(names, ", "))
	b.WriteByte('\n')

	if thread.MessageCount() == 0 {
		b.WriteString(mutedTextStyle.Render("Empty thread"))
		return b.String()
	}

	me := domain.Participant{ID: viewer}
	for _, m := range thread.Messages() {
		b.WriteString(sep)
		b.WriteByte('\n')

		b.WriteString(mutedTextStyle.Render("From:    "))
		b.WriteString(m.Sender.String())
		if viewer != "" && !m.IsReadByParticipant(me) {
			b.WriteString(" ")
			b.WriteString(unreadMarkStyle.Render("● new"))
		}
		b.WriteByte('\n')

		b.WriteString(mutedTextStyle.Render("Date:    "))
		b.WriteString(m.CreatedAt.Local().Format(dateFormat))
		b.WriteString("\n\n")
		b.WriteString(m.Body)
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), "\n")
}

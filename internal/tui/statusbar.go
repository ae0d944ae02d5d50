package tui

import "github.com/charmbracelet/lipgloss"

type statusBar struct {
	message          string
	width            int
	isError          bool
	multiParticipant bool
	readerVisible    bool
}

func newStatusBar() statusBar {
	return statusBar{message: "Ready"}
}

func (s *statusBar) setMessage(msg string) {
	s.message = msg
	s.isError = false
}

func (s *statusBar) setError(msg string) {
	s.message = msg
	s.isError = true
}

func (s statusBar) View() string {
	msgStyle := statusBarStyle
	if s.isError {
		msgStyle = msgStyle.Foreground(errorColor)
	}

	left := s.message
	shortcuts := s.shortcuts()

	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(shortcuts)-2, 0)

	content := left + lipgloss.NewStyle().Width(gap).Render("") + mutedTextStyle.Render(shortcuts)
	return msgStyle.Width(s.width).Render(content)
}

func (s statusBar) shortcuts() string {
	base := "j/k:nav  enter:open  c:new  /:search"
	if s.readerVisible {
		base = "r:reply  d:delete/restore  u:unread  esc:back"
	}
	if s.multiParticipant {
		return base + "  @:participant"
	}
	return base
}

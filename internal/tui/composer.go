package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/msgthread/internal/domain"
)

// composerMode describes the kind of composition taking place.
type composerMode int

const (
	modeCompose composerMode = iota
	modeReply
)

// draft is what the composer hands back on send. threadID is set for replies.
type draft struct {
	threadID string
	to       []domain.ParticipantID
	subject  string
	body     string
}

// Messages emitted by composerModel.

type sendMsg struct {
	draft draft
}

type cancelComposeMsg struct{}

// Field indices within the composer form.
const (
	fieldTo      = 0
	fieldSubject = 1
	fieldBody    = 2
	fieldCount   = 3
)

// composerModel is a Bubble Tea sub-model for starting threads and replying.
type composerModel struct {
	toInput      textinput.Model
	subjectInput textinput.Model
	bodyInput    textarea.Model

	activeField int
	mode        composerMode
	threadID    string

	width   int
	height  int
	visible bool
}

func newComposer() composerModel {
	to := textinput.New()
	to.Placeholder = "bob, carol"
	to.CharLimit = 500
	to.Prompt = ""

	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.CharLimit = 200
	subject.Prompt = ""

	body := textarea.New()
	body.Placeholder = "Write your message..."
	body.SetWidth(40)
	body.SetHeight(6)
	body.CharLimit = 0

	return composerModel{
		toInput:      to,
		subjectInput: subject,
		bodyInput:    body,
	}
}

// Update handles key events for the composer form.
func (c composerModel) Update(msg tea.Msg) (composerModel, tea.Cmd) {
	if !c.visible {
		return c, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			// Replies only have a body.
			if c.mode == modeCompose {
				c.activeField = (c.activeField + 1) % fieldCount
				c.updateFocus()
			}
			return c, nil

		case "esc":
			return c, func() tea.Msg { return cancelComposeMsg{} }

		case "ctrl+s":
			d := c.BuildDraft()
			return c, func() tea.Msg { return sendMsg{draft: d} }
		}
	}

	// Delegate to the active input component.
	var cmd tea.Cmd
	switch c.activeField {
	case fieldTo:
		c.toInput, cmd = c.toInput.Update(msg)
	case fieldSubject:
		c.subjectInput, cmd = c.subjectInput.Update(msg)
	case fieldBody:
		c.bodyInput, cmd = c.bodyInput.Update(msg)
	}
	return c, cmd
}

// View renders the form inside a bordered box.
func (c composerModel) View() string {
	if !c.visible {
		return ""
	}

	innerWidth := max(c.width-4, 20) // border + padding
	inputWidth := max(innerWidth-10, 10)

	c.toInput.Width = inputWidth
	c.subjectInput.Width = inputWidth
	c.bodyInput.SetWidth(innerWidth)
	// border(2) padding(2) fields(2) separator(1) help(1) spacing(1)
	c.bodyInput.SetHeight(max(c.height-9, 3))

	toLabel := mutedTextStyle.Render(fmt.Sprintf("%-9s", "To:"))
	subjectLabel := mutedTextStyle.Render(fmt.Sprintf("%-9s", "Subject:"))
	separator := mutedTextStyle.Render(strings.Repeat("─", innerWidth))

	var rows []string
	if c.mode == modeCompose {
		rows = append(rows, toLabel+c.toInput.View())
		rows = append(rows, subjectLabel+c.subjectInput.View())
	} else {
		rows = append(rows, subjectLabel+c.subjectInput.Value())
	}
	rows = append(rows, separator)
	rows = append(rows, c.bodyInput.View())
	rows = append(rows, "")
	rows = append(rows, mutedTextStyle.Render(c.helpText()))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 1).
		Width(c.width - 2)

	header := titleStyle.Render(" " + c.modeTitle() + " ")
	return header + "\n" + boxStyle.Render(strings.Join(rows, "\n"))
}

// Compose opens the composer for a new thread, clearing all fields.
func (c *composerModel) Compose() {
	c.mode = modeCompose
	c.threadID = ""
	c.clearFields()
	c.visible = true
	c.activeField = fieldTo
	c.updateFocus()
}

// Reply opens the composer for a reply to thread. The subject is shown for
// context but cannot be edited.
func (c *composerModel) Reply(thread *domain.Thread) {
	c.mode = modeReply
	c.threadID = thread.ID
	c.clearFields()
	c.visible = true
	c.subjectInput.SetValue(thread.Subject)
	c.activeField = fieldBody
	c.updateFocus()
}

// Close hides the composer and clears all fields.
func (c *composerModel) Close() {
	c.visible = false
	c.clearFields()
}

// SetSize updates the available dimensions for the composer.
func (c *composerModel) SetSize(w, h int) {
	c.width = w
	c.height = h
}

// IsVisible reports whether the composer is currently displayed.
func (c composerModel) IsVisible() bool {
	return c.visible
}

// BuildDraft collects the current field values.
func (c composerModel) BuildDraft() draft {
	d := draft{
		threadID: c.threadID,
		body:     c.bodyInput.Value(),
	}
	if c.mode == modeCompose {
		d.to = parseRecipients(c.toInput.Value())
		d.subject = strings.TrimSpace(c.subjectInput.Value())
	}
	return d
}

// --- internal helpers ---

func (c *composerModel) clearFields() {
	c.toInput.SetValue("")
	c.subjectInput.SetValue("")
	c.bodyInput.SetValue("")
}

// updateFocus sets the correct focus state on all input components.
func (c *composerModel) updateFocus() {
	c.toInput.Blur()
	c.subjectInput.Blur()
	c.bodyInput.Blur()

	switch c.activeField {
	case fieldTo:
		c.toInput.Focus()
	case fieldSubject:
		c.subjectInput.Focus()
	case fieldBody:
		c.bodyInput.Focus()
	}
}

func (c composerModel) modeTitle() string {
	if c.mode == modeReply {
		return "Reply"
	}
	return "New thread"
}

func (c composerModel) helpText() string {
	if c.mode == modeReply {
		return "Ctrl+S:send  Esc:cancel"
	}
	return "Tab:fields  Ctrl+S:send  Esc:cancel"
}

// parseRecipients splits a comma or space separated list of participant IDs.
func parseRecipients(s string) []domain.ParticipantID {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	ids := make([]domain.ParticipantID, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, domain.ParticipantID(f))
	}
	return ids
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lu-zhengda/msgthread/internal/store"
)

// Messages emitted by searchModel.

type searchQueryMsg struct {
	query string
}

type closeSearchMsg struct{}

// searchModel is a Bubble Tea sub-model for keyword search over the acting
// participant's threads.
type searchModel struct {
	input     textinput.Model
	results   []store.ThreadSummary
	cursor    int
	searching bool
	inputMode bool
	width     int
	height    int
	focused   bool
}

func newSearch() searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search threads..."
	ti.Prompt = "/ "
	ti.CharLimit = 256
	return searchModel{
		input:     ti,
		inputMode: true,
	}
}

func (s searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	if !s.searching {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Back):
			return s, func() tea.Msg { return closeSearchMsg{} }

		case key.Matches(msg, keys.Enter):
			if s.inputMode {
				q := strings.TrimSpace(s.input.Value())
				if q == "" {
					return s, nil
				}
				s.inputMode = false
				s.input.Blur()
				s.cursor = 0
				return s, func() tea.Msg { return searchQueryMsg{query: q} }
			}
			id := s.SelectedThreadID()
			if id == "" {
				return s, nil
			}
			return s, func() tea.Msg { return threadSelectedMsg{threadID: id} }

		case !s.inputMode && key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil

		case !s.inputMode && key.Matches(msg, keys.Down):
			if s.cursor < len(s.results)-1 {
				s.cursor++
			}
			return s, nil
		}
	}

	if s.inputMode {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s searchModel) View() string {
	if !s.searching || s.width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.input.View())
	b.WriteByte('\n')

	if len(s.results) == 0 {
		if !s.inputMode {
			b.WriteByte('\n')
			b.WriteString(mutedTextStyle.Render("No results"))
		}
		return b.String()
	}

	b.WriteByte('\n')
	b.WriteString(titleStyle.Render(fmt.Sprintf("Results (%d):", len(s.results))))
	b.WriteByte('\n')

	// input(1) + blank(1) + header(1) + padding(1)
	end := min(len(s.results), max(s.height-4, 1))
	for i := 0; i < end; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := renderSummaryRow(s.results[i], s.width)
		if !s.inputMode && i == s.cursor && s.focused {
			line = selectedStyle.Width(s.width).Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

// Open activates search mode and focuses the text input.
func (s *searchModel) Open() {
	s.searching = true
	s.inputMode = true
	s.focused = true
	s.input.Focus()
}

// Close deactivates search mode, clearing input and results.
func (s *searchModel) Close() {
	s.searching = false
	s.inputMode = true
	s.focused = false
	s.input.SetValue("")
	s.input.Blur()
	s.results = nil
	s.cursor = 0
}

// SetResults updates the results list after a search query completes.
func (s *searchModel) SetResults(results []store.ThreadSummary) {
	s.results = results
	s.cursor = 0
}

// SetSize updates the dimensions available for rendering.
func (s *searchModel) SetSize(w, h int) {
	s.width = w
	s.height = h
	s.input.Width = w - 4
}

// IsActive reports whether the search overlay is currently shown.
func (s searchModel) IsActive() bool {
	return s.searching
}

// SelectedThreadID returns the ID of the highlighted result.
func (s searchModel) SelectedThreadID() string {
	if len(s.results) == 0 || s.cursor >= len(s.results) {
		return ""
	}
	return s.results[s.cursor].ID
}

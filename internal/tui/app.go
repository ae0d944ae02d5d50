package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/msgthread/internal/app"
	"github.com/lu-zhengda/msgthread/internal/config"
	"github.com/lu-zhengda/msgthread/internal/domain"
	"github.com/lu-zhengda/msgthread/internal/store"
)

type pane int

const (
	paneSidebar pane = iota
	paneList
	paneReader
)

// --- async result messages ---

type threadsLoadedMsg struct {
	threads []store.ThreadSummary
}

type threadLoadedMsg struct {
	thread *domain.Thread
}

type searchResultsMsg struct {
	results []store.ThreadSummary
}

type sentMsg struct {
	threadID string
	reply    bool
}

type actionDoneMsg struct {
	action string
}

type participantSwitchedMsg struct {
	participantID domain.ParticipantID
}

type errMsg struct {
	err error
}

// --- root model ---

type model struct {
	store        store.Store
	svc          *app.ThreadService
	participant  domain.ParticipantID
	participants []domain.Participant

	sidebar  sidebarModel
	inbox    inboxModel
	reader   readerModel
	composer composerModel
	search   searchModel

	activePane pane
	statusBar  statusBar

	width  int
	height int
}

// NewModel creates the root TUI model acting as participant.
func NewModel(s store.Store, svc *app.ThreadService, participant domain.ParticipantID, participants []domain.Participant, display config.DisplayConfig) model {
	inbox := newInbox()
	inbox.focused = true

	sidebar := newSidebar()
	sidebar.participant = string(participant)

	sb := newStatusBar()
	sb.multiParticipant = len(participants) > 1

	return model{
		store:        s,
		svc:          svc,
		participant:  participant,
		participants: participants,
		activePane:   paneList,
		sidebar:      sidebar,
		inbox:        inbox,
		reader:       newReader(display.DateFormat),
		composer:     newComposer(),
		search:       newSearch(),
		statusBar:    sb,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadThreadsCmd(store.BoxInbox)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// --- window resize ---
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.width = msg.Width
		m.resizeSubModels()
		return m, nil

	// --- async result messages ---
	case threadsLoadedMsg:
		m.inbox.SetThreads(msg.threads)
		m.statusBar.setMessage(fmt.Sprintf("%s: %d threads", boxNames[m.sidebar.activeBox], len(msg.threads)))
		return m, nil

	case threadLoadedMsg:
		m.reader.ShowThread(msg.thread, m.participant)
		m.setFocus(paneReader)
		m.statusBar.readerVisible = true
		m.statusBar.setMessage(fmt.Sprintf("%d messages", msg.thread.MessageCount()))
		m.resizeSubModels()
		// The list still shows the thread as unread.
		return m, m.loadThreadsCmd(m.sidebar.activeBox)

	case searchResultsMsg:
		m.search.SetResults(msg.results)
		m.statusBar.setMessage(fmt.Sprintf("Found %d results", len(msg.results)))
		return m, nil

	case sentMsg:
		m.composer.Close()
		m.setFocus(paneList)
		if msg.reply {
			m.statusBar.setMessage("Reply sent")
			return m, tea.Batch(m.loadThreadsCmd(m.sidebar.activeBox), m.openThreadCmd(msg.threadID))
		}
		m.statusBar.setMessage("Thread started")
		return m, m.loadThreadsCmd(m.sidebar.activeBox)

	case actionDoneMsg:
		m.statusBar.setMessage(fmt.Sprintf("Action: %s done", msg.action))
		if msg.action == "delete" || msg.action == "undelete" {
			m.reader.Close()
			m.statusBar.readerVisible = false
			m.setFocus(paneList)
		}
		return m, m.loadThreadsCmd(m.sidebar.activeBox)

	case participantSwitchedMsg:
		m.participant = msg.participantID
		m.sidebar.participant = string(msg.participantID)
		m.sidebar.reset()
		m.inbox.cursor = 0
		m.inbox.offset = 0
		m.reader.Close()
		m.statusBar.readerVisible = false
		m.setFocus(paneList)
		m.statusBar.setMessage(fmt.Sprintf("Acting as %s", msg.participantID))
		return m, m.loadThreadsCmd(store.BoxInbox)

	case errMsg:
		m.statusBar.setError(fmt.Sprintf("Error: %v", msg.err))
		return m, nil

	// --- sub-model emitted messages ---
	case boxSelectedMsg:
		m.reader.Close()
		m.statusBar.readerVisible = false
		m.inbox.cursor = 0
		m.inbox.offset = 0
		m.setFocus(paneList)
		m.statusBar.setMessage(fmt.Sprintf("Loading %s...", boxNames[msg.box]))
		return m, m.loadThreadsCmd(msg.box)

	case threadSelectedMsg:
		m.search.Close()
		m.statusBar.setMessage("Loading thread...")
		return m, m.openThreadCmd(msg.threadID)

	case threadActionMsg:
		action := msg.action
		if action == "delete" && m.sidebar.activeBox == store.BoxDeleted {
			action = "undelete"
		}
		m.statusBar.setMessage(fmt.Sprintf("Performing %s...", action))
		return m, m.performActionCmd(msg.threadID, action)

	case replyMsg:
		m.composer.Reply(msg.thread)
		m.resizeComposer()
		return m, nil

	case closeReaderMsg:
		m.reader.Close()
		m.statusBar.readerVisible = false
		m.setFocus(paneList)
		return m, nil

	case sendMsg:
		m.statusBar.setMessage("Sending...")
		return m, m.sendCmd(msg.draft)

	case cancelComposeMsg:
		m.composer.Close()
		m.setFocus(paneList)
		return m, nil

	case searchQueryMsg:
		m.statusBar.setMessage(fmt.Sprintf("Searching: %s", msg.query))
		return m, m.searchCmd(msg.query)

	case closeSearchMsg:
		m.search.Close()
		m.setFocus(paneList)
		return m, nil

	// --- key events ---
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays get all key events while visible.
	if m.composer.IsVisible() {
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd
	}
	if m.search.IsActive() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Compose):
		m.composer.Compose()
		m.resizeComposer()
		return m, nil

	case key.Matches(msg, keys.Search):
		m.search.Open()
		m.resizeSearch()
		return m, nil

	case key.Matches(msg, keys.Tab):
		switch {
		case m.reader.IsVisible() && m.activePane == paneList:
			m.setFocus(paneReader)
		case m.reader.IsVisible():
			m.setFocus(paneList)
		case m.activePane == paneSidebar:
			m.setFocus(paneList)
		default:
			m.setFocus(paneSidebar)
		}
		return m, nil

	case key.Matches(msg, keys.SwitchParticipant):
		if len(m.participants) < 2 {
			m.statusBar.setMessage("Only one participant registered")
			return m, nil
		}
		return m, m.switchParticipantCmd()
	}

	var cmd tea.Cmd
	switch m.activePane {
	case paneSidebar:
		m.sidebar, cmd = m.sidebar.Update(msg)
	case paneList:
		m.inbox, cmd = m.inbox.Update(msg)
	case paneReader:
		m.reader, cmd = m.reader.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sidebarWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3 // reserve space for status bar

	sidebarView := sidebarStyle.
		Width(sidebarWidth).
		Height(contentHeight).
		Render(m.sidebar.View())

	var contentView string
	switch {
	case m.composer.IsVisible():
		contentView = lipgloss.NewStyle().
			Width(contentWidth).
			Height(contentHeight).
			Render(m.composer.View())

	case m.search.IsActive():
		contentView = lipgloss.NewStyle().
			Width(contentWidth).
			Height(contentHeight).
			Render(m.search.View())

	case m.reader.IsVisible():
		// Split view: list (top half) + reader (bottom half).
		listHeight := contentHeight / 2
		readerHeight := contentHeight - listHeight

		listView := listStyle.
			Width(contentWidth).
			Height(listHeight).
			Render(m.inbox.View())
		readerView := readerStyle.
			Width(contentWidth).
			Height(readerHeight).
			Render(m.reader.View())
		contentView = lipgloss.JoinVertical(lipgloss.Left, listView, readerView)

	default:
		contentView = listStyle.
			Width(contentWidth).
			Height(contentHeight).
			Render(m.inbox.View())
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebarView, contentView)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.statusBar.View())
}

// --- focus management ---

func (m *model) setFocus(p pane) {
	m.activePane = p
	m.sidebar.focused = p == paneSidebar
	m.inbox.focused = p == paneList
	m.reader.focused = p == paneReader
}

// --- layout helpers ---

func (m model) layoutWidths() (sidebarWidth, contentWidth int) {
	sidebarWidth = max(m.width/5, 20)
	contentWidth = m.width - sidebarWidth - 2
	return
}

func (m *model) resizeSubModels() {
	sidebarWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3

	// sidebarStyle: Border(2h + 2v) + Padding(2h + 2v)
	m.sidebar.SetSize(sidebarWidth-4, contentHeight-4)

	// listStyle: Border(2h + 2v) + Padding(2h + 0v)
	if m.reader.IsVisible() {
		listHeight := contentHeight / 2
		readerHeight := contentHeight - listHeight
		m.inbox.SetSize(contentWidth-4, listHeight-2)
		// readerStyle: Border(2h + 2v) + Padding(4h + 2v)
		m.reader.SetSize(contentWidth-6, readerHeight-4)
	} else {
		m.inbox.SetSize(contentWidth-4, contentHeight-2)
	}

	m.resizeComposer()
	m.resizeSearch()
}

func (m *model) resizeComposer() {
	_, contentWidth := m.layoutWidths()
	m.composer.SetSize(contentWidth, m.height-3)
}

func (m *model) resizeSearch() {
	_, contentWidth := m.layoutWidths()
	m.search.SetSize(contentWidth, m.height-3)
}

// --- async commands ---

func (m model) loadThreadsCmd(box store.Box) tea.Cmd {
	opts := store.ListThreadOptions{
		ParticipantID: m.participant,
		Box:           box,
	}
	return func() tea.Msg {
		threads, err := m.store.ListThreads(context.Background(), opts)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load threads: %w", err)}
		}
		return threadsLoadedMsg{threads: threads}
	}
}

// openThreadCmd loads the thread and then marks it read. The returned thread
// is the loaded copy, so new messages are still flagged on screen.
func (m model) openThreadCmd(threadID string) tea.Cmd {
	participant := m.participant
	return func() tea.Msg {
		ctx := context.Background()
		thread, err := m.svc.Read(ctx, threadID)
		if err != nil {
			return errMsg{err: err}
		}
		if thread.IsParticipant(domain.Participant{ID: participant}) {
			if _, err := m.svc.MarkRead(ctx, threadID, participant, true); err != nil {
				return errMsg{err: fmt.Errorf("failed to mark thread read: %w", err)}
			}
		}
		return threadLoadedMsg{thread: thread}
	}
}

func (m model) sendCmd(d draft) tea.Cmd {
	participant := m.participant
	return func() tea.Msg {
		ctx := context.Background()
		if d.threadID != "" {
			if _, err := m.svc.Reply(ctx, d.threadID, participant, d.body); err != nil {
				return errMsg{err: fmt.Errorf("failed to reply: %w", err)}
			}
			return sentMsg{threadID: d.threadID, reply: true}
		}
		if len(d.to) == 0 {
			return errMsg{err: fmt.Errorf("no recipients")}
		}
		thread, err := m.svc.StartThread(ctx, participant, d.to, d.subject, d.body)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to start thread: %w", err)}
		}
		return sentMsg{threadID: thread.ID}
	}
}

func (m model) searchCmd(query string) tea.Cmd {
	participant := m.participant
	return func() tea.Msg {
		results, err := m.store.SearchThreads(context.Background(), query, participant)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to search: %w", err)}
		}
		return searchResultsMsg{results: results}
	}
}

func (m model) performActionCmd(threadID, action string) tea.Cmd {
	participant := m.participant
	return func() tea.Msg {
		ctx := context.Background()
		var err error

		switch action {
		case "delete":
			_, err = m.svc.SetDeleted(ctx, threadID, participant, true)
		case "undelete":
			_, err = m.svc.SetDeleted(ctx, threadID, participant, false)
		case "unread":
			_, err = m.svc.MarkRead(ctx, threadID, participant, false)
		default:
			return errMsg{err: fmt.Errorf("unknown action: %s", action)}
		}

		if err != nil {
			return errMsg{err: fmt.Errorf("failed to %s: %w", action, err)}
		}
		return actionDoneMsg{action: action}
	}
}

func (m model) switchParticipantCmd() tea.Cmd {
	// Cycle to the next registered participant.
	var nextID domain.ParticipantID
	for i, p := range m.participants {
		if p.ID == m.participant {
			nextID = m.participants[(i+1)%len(m.participants)].ID
			break
		}
	}
	if nextID == "" {
		nextID = m.participants[0].ID
	}
	if nextID == m.participant {
		return nil
	}
	return func() tea.Msg {
		return participantSwitchedMsg{participantID: nextID}
	}
}

// Run starts the Bubble Tea TUI application.
func Run(s store.Store, svc *app.ThreadService, participant domain.ParticipantID, participants []domain.Participant, display config.DisplayConfig) error {
	prog := tea.NewProgram(
		NewModel(s, svc, participant, participants, display),
		tea.WithAltScreen(),
	)
	_, err := prog.Run()
	return err
}

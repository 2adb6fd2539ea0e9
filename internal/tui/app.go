package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
)

// Session is the part of *session.Session the TUI drives
type Session interface {
	Mount(ctx context.Context) error
	SelectTab(ctx context.Context, tab domain.Category) error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	Input(query string)
	Submit(ctx context.Context) error
	ClearSearch()
	Apply(ctx context.Context, action domain.Action, movie domain.Movie) error
	Reload(ctx context.Context) error
	Logout() error
	Snapshot() session.Snapshot
}

// Result tells the caller why the program exited
type Result struct {
	AuthRequired bool // credential missing or rejected; run the login flow
	LoggedOut    bool // user logged out explicitly
}

// Model is the application state
type Model struct {
	session  Session
	notifier *ChangeNotifier
	keys     KeyMap
	logger   *slog.Logger

	snap   session.Snapshot
	input  textinput.Model
	typing bool
	cursor int

	Width         int
	Height        int
	SpinnerFrame  int
	ShowHelp      bool
	ConfirmLogout bool

	result Result
}

// NewModel creates a new application model. notifier must be registered with
// the session's OnChange so state changes reach the program.
func NewModel(s Session, notifier *ChangeNotifier, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "search titles"
	input.CharLimit = 200

	return Model{
		session:  s,
		notifier: notifier,
		keys:     DefaultKeyMap(),
		logger:   logger,
		snap:     s.Snapshot(),
		input:    input,
	}
}

// Result returns the exit reason once the program has finished
func (m Model) Result() Result {
	return m.result
}

// Init mounts the session and starts listening for changes
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		MountCmd(m.session),
		WaitForChangeCmd(m.notifier.C()),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case ChangedMsg:
		m.refresh()
		if m.snap.AuthRequired && !m.result.LoggedOut {
			m.result.AuthRequired = true
			return m, tea.Quit
		}
		return m, WaitForChangeCmd(m.notifier.C())

	case OpDoneMsg:
		if msg.Err != nil {
			m.logger.Debug("operation finished with error", "op", msg.Op, "error", msg.Err)
		}
		m.refresh()
		if errors.Is(msg.Err, domain.ErrAuth) {
			m.result.AuthRequired = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	if m.cursor >= len(m.snap.Rows) {
		m.cursor = max(0, len(m.snap.Rows)-1)
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ConfirmLogout {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			if err := m.session.Logout(); err != nil {
				m.logger.Error("logout failed", "error", err)
			}
			m.result.LoggedOut = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Deny):
			m.ConfirmLogout = false
		}
		return m, nil
	}

	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	if m.typing {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = true
	case key.Matches(msg, m.keys.Logout):
		m.ConfirmLogout = true
	case key.Matches(msg, m.keys.Search):
		m.typing = true
		m.input.SetValue(m.snap.Query)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Escape):
		if m.snap.Query != "" || m.snap.View.Mode == session.ModeSearch {
			m.input.SetValue("")
			m.cursor = 0
			return m, ClearSearchCmd(m.session)
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.NextPage):
		m.cursor = 0
		return m, NextPageCmd(m.session)
	case key.Matches(msg, m.keys.PrevPage):
		m.cursor = 0
		return m, PrevPageCmd(m.session)
	case key.Matches(msg, m.keys.NextTab):
		return m.selectTab(m.tabOffset(1))
	case key.Matches(msg, m.keys.PrevTab):
		return m.selectTab(m.tabOffset(-1))
	case key.Matches(msg, m.keys.TabAll):
		return m.selectTab(domain.CategoryAll)
	case key.Matches(msg, m.keys.TabLiked):
		return m.selectTab(domain.CategoryLiked)
	case key.Matches(msg, m.keys.TabDisl):
		return m.selectTab(domain.CategoryDisliked)
	case key.Matches(msg, m.keys.TabRec):
		return m.selectTab(domain.CategoryRecommended)
	case key.Matches(msg, m.keys.Like):
		return m.apply(domain.ActionLike)
	case key.Matches(msg, m.keys.Dislike):
		return m.apply(domain.ActionDislike)
	case key.Matches(msg, m.keys.Undislike):
		return m.apply(domain.ActionUndislike)
	case key.Matches(msg, m.keys.Refresh):
		return m, ReloadCmd(m.session)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.typing = false
		m.input.Blur()
		m.input.SetValue("")
		m.cursor = 0
		return m, ClearSearchCmd(m.session)
	case key.Matches(msg, m.keys.Submit):
		m.typing = false
		m.input.Blur()
		m.cursor = 0
		return m, SubmitSearchCmd(m.session)
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.session.Input(after)
		m.cursor = 0
	}
	return m, cmd
}

func (m Model) selectTab(tab domain.Category) (tea.Model, tea.Cmd) {
	m.cursor = 0
	m.input.SetValue("")
	return m, SelectTabCmd(m.session, tab)
}

func (m Model) tabOffset(delta int) domain.Category {
	n := len(domain.Categories)
	for i, c := range domain.Categories {
		if c == m.snap.Tab {
			return domain.Categories[((i+delta)%n+n)%n]
		}
	}
	return domain.CategoryAll
}

func (m Model) apply(action domain.Action) (tea.Model, tea.Cmd) {
	row, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m, ApplyCmd(m.session, action, row.Movie)
}

func (m Model) selected() (session.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Rows) {
		return session.Row{}, false
	}
	return m.snap.Rows[m.cursor], true
}

// Run starts the TUI over s and blocks until it exits
func Run(s *session.Session, logger *slog.Logger) (Result, error) {
	notifier := NewChangeNotifier()
	s.OnChange(notifier.Notify)

	p := tea.NewProgram(NewModel(s, notifier, logger), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Result{}, err
	}
	if fm, ok := final.(Model); ok {
		return fm.Result(), nil
	}
	return Result{}, nil
}

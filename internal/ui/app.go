package ui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/rill/internal/diag"
	"github.com/five82/rill/internal/prefs"
	"github.com/five82/rill/internal/state"
	"github.com/five82/rill/internal/viewport"
)

// Lines is the line store the viewer draws from.
type Lines interface {
	viewport.LineSource
	Cap() int
}

// StatusSource reports the ingestion status.
type StatusSource interface {
	Snapshot() state.Snapshot
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Lines      Lines
	Status     StatusSource
	Restart    func() error
	Logger     *slog.Logger
	RowHeight  int
	Follow     bool
	ThemeName  string
	PrefsPath  string
	ShowMemory bool
	PollTick   time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	lines      Lines
	status     StatusSource
	restart    func() error
	logger     *slog.Logger
	prefsPath  string
	pollTick   time.Duration
	showMemory bool

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	vp       *viewport.Model
	renderer viewport.Renderer
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot   state.Snapshot
	memory     diag.Stats
	restarting bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultStatusInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}
	theme := GetTheme(themeName)

	m := Model{
		lines:      opts.Lines,
		status:     opts.Status,
		restart:    opts.Restart,
		logger:     logger,
		prefsPath:  opts.PrefsPath,
		pollTick:   pollTick,
		showMemory: opts.ShowMemory,
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		vp:         viewport.New(opts.RowHeight, opts.Follow),
		renderer:   viewport.Renderer{Styles: theme.Viewport(), LineNumbers: true},
	}
	if m.restart == nil {
		// One-shot sources cannot be read again.
		m.keys.Restart.SetEnabled(false)
	}
	if m.status != nil {
		m.snapshot = m.status.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.showMemory {
		cmds = append(cmds, sampleMemoryCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.vp.SetHeight(bodyHeight(msg.Height))
		m.vp.Sync(m.length())
		m.ready = true
		return m, nil

	case GrowthMsg:
		m.vp.Sync(m.length())
		m.refreshStatus()
		return m, nil

	case tickMsg:
		m.refreshStatus()
		m.vp.Sync(m.length())
		var cmds []tea.Cmd
		if m.showMemory {
			cmds = append(cmds, sampleMemoryCmd())
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case memoryMsg:
		m.memory = diag.Stats(msg)
		return m, nil

	case restartedMsg:
		m.restarting = false
		if msg.err != nil {
			m.logger.Error("restart failed", "error", msg.err)
		}
		m.refreshStatus()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	length := m.length()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.renderer.Styles = m.theme.Viewport()
		m.savePrefs()

	case key.Matches(msg, m.keys.ToggleFollow):
		mode := m.vp.Toggle()
		m.vp.Sync(length)
		m.logger.Debug("auto-scroll toggled", "mode", mode.String())
		m.savePrefs()

	case key.Matches(msg, m.keys.Restart):
		return m.handleRestart()

	case key.Matches(msg, m.keys.Up):
		m.vp.ScrollBy(-1, length)
	case key.Matches(msg, m.keys.Down):
		m.vp.ScrollBy(1, length)
	case key.Matches(msg, m.keys.PageUp):
		m.vp.PageUp(length)
	case key.Matches(msg, m.keys.PageDown):
		m.vp.PageDown(length)
	case key.Matches(msg, m.keys.Top):
		m.vp.Top()
	case key.Matches(msg, m.keys.Bottom):
		m.vp.Bottom(length)
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.vp.ScrollBy(-MouseWheelRows, m.length())
	case tea.MouseButtonWheelDown:
		m.vp.ScrollBy(MouseWheelRows, m.length())
	}
	return m, nil
}

// handleRestart runs the restart off the event loop: stopping the old
// session waits for its goroutines, which may be blocked on Send.
func (m Model) handleRestart() (tea.Model, tea.Cmd) {
	if m.restart == nil || m.restarting {
		return m, nil
	}
	m.restarting = true
	restart := m.restart
	return m, func() tea.Msg {
		return restartedMsg{err: restart()}
	}
}

func (m *Model) refreshStatus() {
	if m.status != nil {
		m.snapshot = m.status.Snapshot()
	}
}

func (m Model) length() int {
	if m.lines == nil {
		return 0
	}
	return m.lines.Len()
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Follow: m.vp.Following(), Theme: m.theme.Name}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
	}
}

// Messages

// GrowthMsg tells the model the line store has grown.
type GrowthMsg struct{}

type tickMsg time.Time

type memoryMsg diag.Stats

type restartedMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func sampleMemoryCmd() tea.Cmd {
	return func() tea.Msg {
		return memoryMsg(diag.Sample())
	}
}

// Run starts the Bubble Tea program and blocks until it exits. ready, if
// non-nil, receives the program before it starts so callers can Send to it.
func Run(opts Options, ready func(*tea.Program)) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if ready != nil {
		ready(p)
	}
	_, err := p.Run()
	return err
}

// Package tui provides the BubbleTea-based panel applet.
//
// The model owns an applet.Coordinator and a subscription.Set and uses the
// bubbletea message loop as the single thread that reduces events: the
// connection attempt and the daemon subscription run as commands whose
// results come back as messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/controlcenter/internal/applet"
	"github.com/jmylchreest/controlcenter/internal/config"
	"github.com/jmylchreest/controlcenter/internal/daemon"
	"github.com/jmylchreest/controlcenter/internal/subscription"
)

const (
	sliderMaxWidth = 40
	footerInterval = 10 * time.Second
)

var (
	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the applet TUI model.
type Model struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger

	coord     *applet.Coordinator
	subs      *subscription.Set[daemon.Event]
	connect   applet.ConnectFunc
	subscribe applet.SubscribeFunc

	// Popup surface currently on screen, driven by effects
	surface applet.SurfaceID

	// Components
	slider progress.Model
	help   help.Model
	keys   KeyMap

	width  int
	height int
	ready  bool
}

// Options configures a Model.
type Options struct {
	Config    *config.Config
	Connect   applet.ConnectFunc
	Subscribe applet.SubscribeFunc
	Logger    *slog.Logger
}

// New creates a model whose subscriptions live at most as long as ctx.
// Call Shutdown once the program has exited.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return Model{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		coord:     applet.NewCoordinator(logger),
		subs:      subscription.NewSet[daemon.Event](ctx, 16, logger),
		connect:   opts.Connect,
		subscribe: opts.Subscribe,
		slider:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:      help.New(),
		keys:      DefaultKeyMap(),
	}
}

// Snapshot returns the current session state.
func (m Model) Snapshot() applet.Snapshot {
	return m.coord.Snapshot()
}

// Shutdown releases every daemon subscription and waits for them to stop.
func (m Model) Shutdown() {
	m.subs.Close()
}

// Init issues the one connection attempt.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForDaemon, tickFooter()}
	if m.coord.Begin() {
		cmds = append(cmds, m.connectCmd)
	}
	return tea.Batch(cmds...)
}

type connectResultMsg struct {
	ev applet.Event
}

type daemonEventMsg struct {
	ev daemon.Event
}

type configReloadedMsg struct {
	cfg *config.Config
}

type footerTickMsg struct{}

// connectCmd makes the connection attempt off the UI goroutine.
func (m Model) connectCmd() tea.Msg {
	return connectResultMsg{ev: m.connect.Attempt(m.ctx)}
}

// waitForDaemon waits for the next event from any running subscription.
func (m Model) waitForDaemon() tea.Msg {
	select {
	case ev := <-m.subs.Events():
		return daemonEventMsg{ev: ev}
	case <-m.ctx.Done():
		return nil
	}
}

func tickFooter() tea.Cmd {
	return tea.Tick(footerInterval, func(time.Time) tea.Msg {
		return footerTickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.slider.Width = min(sliderMaxWidth, max(msg.Width-8, 10))
		m.help.Width = msg.Width
		return m, nil

	case connectResultMsg:
		m.step(msg.ev)
		return m, nil

	case daemonEventMsg:
		if ev := applet.FromDaemon(msg.ev); ev != nil {
			m.step(ev)
		}
		return m, m.waitForDaemon

	case configReloadedMsg:
		m.applyConfig(msg.cfg)
		return m, nil

	case footerTickMsg:
		return m, tickFooter()
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Toggle):
		m.step(applet.TogglePopup{})

	case key.Matches(msg, m.keys.Close):
		// The popup window went away; the coordinator decides if it matters
		if m.surface != "" {
			id := m.surface
			m.surface = ""
			m.step(applet.PopupClosed{ID: id})
		}

	case key.Matches(msg, m.keys.Decrease):
		m.adjust(-m.cfg.UI.BrightnessStep)

	case key.Matches(msg, m.keys.Increase):
		m.adjust(m.cfg.UI.BrightnessStep)
	}

	return m, nil
}

// adjust moves the slider by delta, clamped to the daemon's range.
func (m *Model) adjust(delta int) {
	if m.surface == "" {
		return
	}
	snap := m.coord.Snapshot()
	if !snap.SliderVisible() || *snap.Maximum < 1 {
		return
	}

	value := int(*snap.Current) + delta
	value = max(1, min(value, int(*snap.Maximum)))
	if int32(value) == *snap.Current {
		return
	}
	m.step(applet.SetBrightness{Value: int32(value)})
}

// step reduces one event, applies its effects and recomposes subscriptions.
func (m *Model) step(ev applet.Event) {
	for _, effect := range m.coord.Update(ev) {
		switch e := effect.(type) {
		case applet.OpenPopup:
			m.surface = e.ID
			m.logger.Debug("popup opened", "id", e.ID)
		case applet.DestroyPopup:
			if m.surface == e.ID {
				m.surface = ""
			}
			m.logger.Debug("popup destroyed", "id", e.ID)
		}
	}

	if started, stopped := m.subs.Recompose(m.coord.Subscriptions(m.subscribe)); started+stopped > 0 {
		m.logger.Debug("subscriptions recomposed", "started", started, "stopped", stopped)
	}
}

// applyConfig takes the presentation settings of a reloaded config.
// Daemon settings only apply on restart.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg.UI = cfg.UI
	m.logger.Info("applied reloaded config", "brightness_step", cfg.UI.BrightnessStep)
}

// View renders the applet.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	snap := m.coord.Snapshot()

	s := m.viewButton(snap)
	if m.surface != "" {
		s += "\n" + m.viewPopup(snap)
	}
	s += "\n" + m.viewFooter(snap)
	if m.cfg.UI.ShowHelp {
		s += "\n" + m.help.View(m.keys)
	}
	return s
}

// viewButton renders the panel button.
func (m Model) viewButton(snap applet.Snapshot) string {
	label := m.cfg.UI.Icon
	if pct, ok := snap.Percent(); ok {
		label += fmt.Sprintf(" %d%%", int(pct*100+0.5))
	}
	return buttonStyle.Render(label)
}

// viewPopup renders the popup. The slider only appears once both bounds are known.
func (m Model) viewPopup(snap applet.Snapshot) string {
	content := labelStyle.Render("Display brightness") + "\n"

	if !snap.SliderVisible() {
		content += dimStyle.Render("Brightness unavailable")
		return popupStyle.Render(content)
	}

	pct, _ := snap.Percent()
	content += m.slider.ViewAs(pct) + "\n"
	content += dimStyle.Render(fmt.Sprintf("%d / %d", *snap.Current, *snap.Maximum))
	return popupStyle.Render(content)
}

// viewFooter renders the connection status line.
func (m Model) viewFooter(snap applet.Snapshot) string {
	switch {
	case snap.Error != "":
		return errorStyle.Render("settings daemon unavailable: " + snap.Error)
	case !snap.ConnectedAt.IsZero():
		return dimStyle.Render(fmt.Sprintf("%s, connected %s", snap.PhaseName, humanize.Time(snap.ConnectedAt)))
	default:
		return dimStyle.Render(snap.PhaseName)
	}
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config     *config.Config
	ConfigPath string // Path to watch for changes (empty = default)
	Connect    applet.ConnectFunc
	Subscribe  applet.SubscribeFunc
	Logger     *slog.Logger
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, Options{
		Config:    opts.Config,
		Connect:   opts.Connect,
		Subscribe: opts.Subscribe,
		Logger:    logger,
	})
	defer m.Shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watcher := daemon.NewConfigWatcher(opts.ConfigPath, logger)
	watcher.SetReloadCallback(func(cfg *config.Config) {
		p.Send(configReloadedMsg{cfg: cfg})
	})
	if err := watcher.Start(ctx, opts.Config); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	}
	defer watcher.Stop()

	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

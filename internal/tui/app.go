package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/telepath/internal/avr"
	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/tui/components"
	"github.com/tessro/telepath/internal/tui/styles"
)

const errorDisplay = 5 * time.Second

// Controller is the part of a receiver connection the dashboard drives.
type Controller interface {
	Endpoint() core.Endpoint
	State() avr.State
	Snapshot() core.ReceiverState
	Subscribe() (<-chan core.ReceiverState, func())
	PowerToggle() error
	ZoneToggle(z core.ZoneID) error
	ToggleMute(z core.ZoneID) error
	StepVolume(z core.ZoneID, delta float64) error
	SetInputDevice(z core.ZoneID, dev core.InputDevice) error
}

// Options configures the dashboard.
type Options struct {
	Step  float64
	Zone  core.ZoneID
	Theme string
}

type keyMap struct {
	Power    key.Binding
	Zone     key.Binding
	Mute     key.Binding
	Up       key.Binding
	Down     key.Binding
	Input    key.Binding
	Next     key.Binding
	Prev     key.Binding
	Help     key.Binding
	Quit     key.Binding
	ForceEnd key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help, k.Power, k.Zone, k.Mute, k.Up, k.Down, k.Input, k.Next}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Help, k.Quit},
		{k.Power, k.Zone, k.Mute},
		{k.Up, k.Down, k.Input},
	}
}

var keys = keyMap{
	Power:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "receiver power")),
	Zone:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "zone power")),
	Mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
	Up:       key.NewBinding(key.WithKeys("+", "=", "up", "k"), key.WithHelp("+", "volume up")),
	Down:     key.NewBinding(key.WithKeys("-", "down", "j"), key.WithHelp("-", "volume down")),
	Input:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "next input")),
	Next:     key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next zone")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "previous zone")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
	ForceEnd: key.NewBinding(key.WithKeys("ctrl+c")),
}

// Model is the bubbletea model of the receiver dashboard
type Model struct {
	ctrl    Controller
	opts    Options
	updates <-chan core.ReceiverState
	cancel  func()

	state       core.ReceiverState
	focusedZone core.ZoneID
	header      *components.Receiver
	zones       []*components.Zone
	help        help.Model

	width    int
	height   int
	showHelp bool
	quitting bool

	lastError   error
	errorExpiry time.Time
}

// NewModel creates the dashboard model and subscribes to receiver state.
func NewModel(ctrl Controller, opts Options) Model {
	if opts.Step <= 0 {
		opts.Step = 1
	}
	if !opts.Zone.Valid() {
		opts.Zone = core.ZoneMain
	}

	updates, cancel := ctrl.Subscribe()
	zones := make([]*components.Zone, 0, core.NumZones)
	for _, z := range core.Zones {
		zones = append(zones, components.NewZone(z))
	}

	return Model{
		ctrl:        ctrl,
		opts:        opts,
		updates:     updates,
		cancel:      cancel,
		state:       ctrl.Snapshot(),
		focusedZone: opts.Zone,
		header:      components.NewReceiver(),
		zones:       zones,
		help:        help.New(),
	}
}

// Messages
type stateMsg core.ReceiverState
type closedMsg struct{}
type errMsg error

func (m Model) waitForState() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return stateMsg(st)
	}
}

// Init starts listening for state updates
func (m Model) Init() tea.Cmd {
	return m.waitForState()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		m.state = core.ReceiverState(msg)
		return m, m.waitForState()

	case closedMsg:
		return m, nil

	case errMsg:
		m.lastError = msg
		m.errorExpiry = time.Now().Add(errorDisplay)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceEnd) {
		return m.quit()
	}

	if m.showHelp {
		if key.Matches(msg, keys.Help) || key.Matches(msg, keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	z := m.focusedZone
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()
	case key.Matches(msg, keys.Help):
		m.showHelp = true
	case key.Matches(msg, keys.Next):
		m.focusedZone = (m.focusedZone + 1) % core.NumZones
	case key.Matches(msg, keys.Prev):
		m.focusedZone = (m.focusedZone + core.NumZones - 1) % core.NumZones
	case key.Matches(msg, keys.Power):
		return m, m.action(m.ctrl.PowerToggle)
	case key.Matches(msg, keys.Zone):
		return m, m.action(func() error { return m.ctrl.ZoneToggle(z) })
	case key.Matches(msg, keys.Mute):
		return m, m.action(func() error { return m.ctrl.ToggleMute(z) })
	case key.Matches(msg, keys.Up):
		return m, m.action(func() error { return m.ctrl.StepVolume(z, m.opts.Step) })
	case key.Matches(msg, keys.Down):
		return m, m.action(func() error { return m.ctrl.StepVolume(z, -m.opts.Step) })
	case key.Matches(msg, keys.Input):
		next := nextInput(m.state.Inputs[z])
		return m, m.action(func() error { return m.ctrl.SetInputDevice(z, next) })
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

func (m Model) action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

// nextInput cycles through the selectable inputs. Unknown starts at the first.
func nextInput(cur core.InputDevice) core.InputDevice {
	for i, d := range core.InputDevices {
		if d == cur {
			return core.InputDevices[(i+1)%len(core.InputDevices)]
		}
	}
	return core.InputDevices[0]
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Connecting..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	header := m.header.Render(m.ctrl.Endpoint(), m.ctrl.State().String(), m.state, m.width)

	// One column per zone
	colWidth := m.width / core.NumZones
	panelHeight := m.height - lipgloss.Height(header) - 3
	if panelHeight < 9 {
		panelHeight = 9
	}

	panels := make([]string, 0, len(m.zones))
	for _, zc := range m.zones {
		panels = append(panels, zc.Render(m.state, colWidth-2, panelHeight, zc.ID() == m.focusedZone))
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, panels...)

	return lipgloss.JoinVertical(lipgloss.Left, header, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.ShortHelpView(keys.ShortHelp())

	if m.lastError != nil {
		status = styles.Failure.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := styles.Title.Render("Telepath - Keyboard Shortcuts")
	body := m.help.FullHelpView(keys.FullHelp())
	footer := styles.Dim.Render("Press ? or Esc to close")

	box := styles.BorderStyle.Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer),
	)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

// Run starts the dashboard for an already started connection
func Run(ctrl Controller, opts Options) error {
	styles.ApplyTheme(opts.Theme)

	model := NewModel(ctrl, opts)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

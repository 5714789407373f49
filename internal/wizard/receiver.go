package wizard

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
)

// ReceiverModel is the bubbletea model for the receiver picker.
type ReceiverModel struct {
	receivers []discovery.Receiver
	current   core.Endpoint
	cursor    int
	selected  *discovery.Receiver
	width     int
	height    int
}

// Styles for receiver picker
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	pickerCurrentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	pickerDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// NewReceiverModel creates a new receiver picker. The demo receiver is
// always offered last.
func NewReceiverModel(receivers []discovery.Receiver, current core.Endpoint) ReceiverModel {
	list := make([]discovery.Receiver, 0, len(receivers)+1)
	for _, r := range receivers {
		if !r.IsDemo() {
			list = append(list, r)
		}
	}
	list = append(list, discovery.Receiver{Endpoint: core.DemoEndpoint, Manual: true})

	m := ReceiverModel{
		receivers: list,
		current:   current,
		width:     80,
		height:    20,
	}
	for i, r := range list {
		if r.Equal(current) {
			m.cursor = i
		}
	}
	return m
}

// Init initializes the model.
func (m ReceiverModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m ReceiverModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "enter", " ":
			if m.cursor < len(m.receivers) {
				m.selected = &m.receivers[m.cursor]
				return m, tea.Quit
			}

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.receivers)-1 {
				m.cursor++
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.receivers) - 1
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the model.
func (m ReceiverModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("📡 Select Receiver"))
	b.WriteString("\n\n")

	for i, r := range m.receivers {
		var line strings.Builder

		if r.Equal(m.current) {
			line.WriteString(pickerCurrentStyle.Render("● "))
		} else {
			line.WriteString(pickerDimStyle.Render("○ "))
		}

		line.WriteString(r.DisplayName())
		if !r.IsDemo() {
			line.WriteString(" " + pickerDimStyle.Render("("+r.Address+")"))
		}
		if detail := receiverDetail(r); detail != "" {
			line.WriteString(pickerDimStyle.Render(" - " + detail))
		}

		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("▸ " + line.String()))
		} else {
			b.WriteString(pickerItemStyle.Render("  " + line.String()))
		}
		b.WriteString("\n")
	}

	if len(m.receivers) == 1 {
		b.WriteString("\n")
		b.WriteString(pickerDimStyle.Render("No receivers found. Check that network control is enabled, or add one with 'telepath receivers add'."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickerDimStyle.Render("↑/↓ navigate • enter select • esc quit"))
	b.WriteString("\n")
	b.WriteString(pickerDimStyle.Render("● selected  ○ available"))

	return b.String()
}

func receiverDetail(r discovery.Receiver) string {
	switch {
	case r.IsDemo():
		return "no hardware needed"
	case r.Manual:
		return "added manually"
	case !r.LastSeen.IsZero():
		return "seen " + humanize.RelTime(r.LastSeen, time.Now(), "ago", "from now")
	}
	return ""
}

// Selected returns the selected receiver, or nil if none.
func (m ReceiverModel) Selected() *discovery.Receiver {
	return m.selected
}

// RunReceiverPicker runs the receiver picker and returns the selection.
func RunReceiverPicker(receivers []discovery.Receiver, current core.Endpoint) (*discovery.Receiver, error) {
	model := NewReceiverModel(receivers, current)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(ReceiverModel).Selected(), nil
}

package wizard

import (
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/telepath/internal/core"
)

// AddressModel asks for a receiver address and an optional name.
type AddressModel struct {
	inputs   []textinput.Model
	focus    int
	err      string
	endpoint *core.Endpoint
}

var (
	promptLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	promptErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

// NewAddressModel creates the address prompt.
func NewAddressModel() AddressModel {
	addr := textinput.New()
	addr.Placeholder = "192.168.1.40 or avr.local"
	addr.CharLimit = 253
	addr.Focus()

	name := textinput.New()
	name.Placeholder = "Living Room"
	name.CharLimit = 64

	return AddressModel{inputs: []textinput.Model{addr, name}}
}

// Init initializes the model.
func (m AddressModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m AddressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab", "up", "down":
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % len(m.inputs)
			return m, m.inputs[m.focus].Focus()

		case "enter":
			if m.focus == 0 {
				m.inputs[0].Blur()
				m.focus = 1
				return m, m.inputs[1].Focus()
			}
			ep, errMsg := parseEndpoint(m.inputs[0].Value(), m.inputs[1].Value())
			if errMsg != "" {
				m.err = errMsg
				return m, nil
			}
			m.endpoint = &ep
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// parseEndpoint validates the entered address.
func parseEndpoint(addr, name string) (core.Endpoint, string) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return core.Endpoint{}, "address is required"
	}
	if strings.Contains(addr, "://") {
		return core.Endpoint{}, "enter a host name or IP address, not a URL"
	}
	if host, port, err := net.SplitHostPort(addr); err == nil {
		if _, err := strconv.Atoi(port); err != nil {
			return core.Endpoint{}, "port must be a number"
		}
		addr = host
	}
	if addr == "" || strings.ContainsAny(addr, " /") {
		return core.Endpoint{}, "not a valid host name or IP address"
	}
	return core.Endpoint{Name: strings.TrimSpace(name), Address: addr}, ""
}

// View renders the model.
func (m AddressModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("➕ Add Receiver"))
	b.WriteString("\n\n")
	b.WriteString(promptLabelStyle.Render("Address"))
	b.WriteString("\n")
	b.WriteString(m.inputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(promptLabelStyle.Render("Name (optional)"))
	b.WriteString("\n")
	b.WriteString(m.inputs[1].View())
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(promptErrorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickerDimStyle.Render("tab switch field • enter confirm • esc cancel"))
	return b.String()
}

// Endpoint returns the entered receiver, or nil if cancelled.
func (m AddressModel) Endpoint() *core.Endpoint {
	return m.endpoint
}

// RunAddressPrompt runs the prompt and returns the entered receiver.
func RunAddressPrompt() (*core.Endpoint, error) {
	p := tea.NewProgram(NewAddressModel())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(AddressModel).Endpoint(), nil
}

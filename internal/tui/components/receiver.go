package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/tui/styles"
)

// Receiver displays the receiver header: identity, link and global power
type Receiver struct{}

// NewReceiver creates a new Receiver component
func NewReceiver() *Receiver {
	return &Receiver{}
}

// Render renders the header line
func (r *Receiver) Render(ep core.Endpoint, phase string, state core.ReceiverState, width int) string {
	name := styles.Title.Render("📡 " + ep.DisplayName())
	if !ep.IsDemo() && ep.Address != "" {
		name += " " + styles.Dim.Render(ep.Address)
	}

	var link string
	switch {
	case state.Demo:
		link = styles.Alert.Render("demo")
	case state.Connected:
		link = styles.On.Render("connected")
	default:
		link = styles.Failure.Render(phase)
	}

	power := styles.PowerIcon(state.GlobalPower) + " "
	if state.GlobalPower {
		power += "On"
	} else {
		power += "Standby"
	}

	maxVol := styles.Dim.Render("max ?")
	if state.MaxVolume != nil {
		maxVol = styles.Dim.Render(fmt.Sprintf("max %s", FormatVolume(*state.MaxVolume)))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top,
		name, "  ", link, "  ", power, "  ", maxVol,
	)
	return lipgloss.NewStyle().Width(width).Padding(0, 1).Render(line)
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/tui/styles"
)

// Zone displays one zone's power, mute, volume and input
type Zone struct {
	id core.ZoneID
}

// NewZone creates a new Zone component
func NewZone(id core.ZoneID) *Zone {
	return &Zone{id: id}
}

// ID returns the zone shown by the panel
func (z *Zone) ID() core.ZoneID {
	return z.id
}

// Render renders the zone panel
func (z *Zone) Render(state core.ReceiverState, width, height int, focused bool) string {
	title := styles.PanelTitle(z.id.String(), focused)

	var content string
	zs, ok := state.Zone(z.id)
	if !ok {
		content = styles.Muted.Render("Not reported")
	} else {
		content = z.renderZone(state, zs, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (z *Zone) renderZone(state core.ReceiverState, zs core.ZoneState, width int) string {
	power := "Off"
	if zs.Powered {
		power = "On"
	}
	status := fmt.Sprintf("%s %s  %s", styles.PowerIcon(zs.Powered), power, styles.MuteIcon(zs.Muted))
	if zs.Muted {
		status += styles.Alert.Render(" muted")
	}

	volume := styles.Title.Render(FormatVolume(zs.Volume))
	fraction, known := state.VolumePercent(z.id)
	if !known {
		fraction = zs.Volume / core.DefaultMaxVolume
	}
	bar := styles.VolumeBar(fraction, width-8, zs.Muted)

	input := styles.Label.Render("Input ") + strings.ToUpper(string(state.Inputs[z.id]))
	if state.Inputs[z.id] == core.InputSelect {
		input = styles.Label.Render("Input ") + styles.Dim.Render("unknown")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		"",
		bar+" "+volume,
		"",
		input,
	)
}

// FormatVolume shows half steps only when present.
func FormatVolume(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}

package watch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	jsonOutput    bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithJSON emits one JSON object per event.
func WithJSON(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.jsonOutput = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	switch {
	case f.jsonOutput:
		return f.formatJSON(e)
	case f.template != nil:
		return f.formatTemplate(e)
	default:
		return f.formatLine(e)
	}
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, eventDescription(e))

	return strings.Join(parts, " ")
}

type templateData struct {
	Type      string    `json:"type"`
	Emoji     string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"-"`
	Zone      string    `json:"zone,omitempty"`
	Powered   bool      `json:"powered"`
	Muted     bool      `json:"muted"`
	Volume    float64   `json:"volume"`
	Input     string    `json:"input,omitempty"`
	Message   string    `json:"message"`
}

func newTemplateData(e Event) templateData {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Message:   eventDescription(e),
	}
	if isZoneEvent(e.Type) {
		data.Zone = e.Zone.String()
		if zs, ok := e.Current.Zone(e.Zone); ok {
			data.Powered = zs.Powered
			data.Muted = zs.Muted
			data.Volume = zs.Volume
		}
		data.Input = string(e.Current.Inputs[e.Zone])
	} else {
		data.Powered = e.Current.GlobalPower
	}
	return data
}

func (f *Formatter) formatTemplate(e Event) string {
	var buf bytes.Buffer
	if err := f.template.Execute(&buf, newTemplateData(e)); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

func (f *Formatter) formatJSON(e Event) string {
	data, err := json.Marshal(newTemplateData(e))
	if err != nil {
		return f.formatLine(e)
	}
	return string(data)
}

func isZoneEvent(t EventType) bool {
	switch t {
	case EventZoneAppeared, EventZonePower, EventMute, EventVolume, EventInput:
		return true
	}
	return false
}

// eventDescription returns a human-readable description of the event.
func eventDescription(e Event) string {
	zs, _ := e.Current.Zone(e.Zone)

	switch e.Type {
	case EventConnected:
		return "Connected"
	case EventDisconnected:
		return "Connection lost"
	case EventPower:
		if e.Current.GlobalPower {
			return "Receiver on"
		}
		return "Receiver standby"
	case EventMaxVolume:
		if e.Current.MaxVolume != nil {
			return fmt.Sprintf("Max volume: %s", formatVolume(*e.Current.MaxVolume))
		}
		return "Max volume unknown"
	case EventZoneAppeared:
		return fmt.Sprintf("%s available", e.Zone)
	case EventZonePower:
		if zs.Powered {
			return fmt.Sprintf("%s on", e.Zone)
		}
		return fmt.Sprintf("%s off", e.Zone)
	case EventMute:
		if zs.Muted {
			return fmt.Sprintf("%s muted", e.Zone)
		}
		return fmt.Sprintf("%s unmuted", e.Zone)
	case EventVolume:
		return fmt.Sprintf("%s volume: %s", e.Zone, formatVolume(zs.Volume))
	case EventInput:
		return fmt.Sprintf("%s input: %s", e.Zone, strings.ToUpper(string(e.Current.Inputs[e.Zone])))
	default:
		return "Unknown event"
	}
}

// formatVolume drops the decimal for whole values.
func formatVolume(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventConnected:
		return "🔌"
	case EventDisconnected:
		return "⚠️"
	case EventPower, EventZonePower:
		return "⏻"
	case EventZoneAppeared:
		return "📍"
	case EventMute:
		return "🔇"
	case EventVolume, EventMaxVolume:
		return "🔊"
	case EventInput:
		return "🎛️"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventPower:
		return "power"
	case EventZoneAppeared:
		return "zone_appeared"
	case EventZonePower:
		return "zone_power"
	case EventMute:
		return "mute"
	case EventVolume:
		return "volume"
	case EventInput:
		return "input"
	case EventMaxVolume:
		return "max_volume"
	default:
		return "unknown"
	}
}

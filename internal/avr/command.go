package avr

import (
	"strconv"
	"strings"

	"github.com/tessro/telepath/internal/core"
)

// Command is an instruction understood by the receiver.
type Command interface {
	wire() string
}

// SetGlobalPower switches the whole receiver on or to standby.
type SetGlobalPower struct {
	On bool
}

// SetPower switches a single zone on or off.
type SetPower struct {
	Zone core.ZoneID
	On   bool
}

// SetMute mutes or unmutes a zone.
type SetMute struct {
	Zone core.ZoneID
	On   bool
}

// SetVolume sets a zone's absolute volume in receiver units.
type SetVolume struct {
	Zone  core.ZoneID
	Value float64
}

// SetInput routes an input device to a zone.
type SetInput struct {
	Zone   core.ZoneID
	Device core.InputDevice
}

// QueryVitals asks the receiver to report power, volume, mute and input
// state for every zone in one batch.
type QueryVitals struct{}

const lineEnd = "\r\n"

var vitalsQueries = []string{"PW?", "MV?", "ZM?", "Z2?", "Z3?", "MU?", "Z2MU?", "Z3MU?", "SI?"}

// zonePrefix returns the explicit zone mnemonic. Main has none: its commands
// use their own bare mnemonics (PW, MV, MU, SI, ZM).
func zonePrefix(z core.ZoneID) string {
	switch z {
	case core.Zone2:
		return "Z2"
	case core.Zone3:
		return "Z3"
	default:
		return ""
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func (c SetGlobalPower) wire() string {
	if c.On {
		return "PWON"
	}
	return "PWSTANDBY"
}

func (c SetPower) wire() string {
	if c.Zone == core.ZoneMain {
		return "ZM" + onOff(c.On)
	}
	return zonePrefix(c.Zone) + onOff(c.On)
}

func (c SetMute) wire() string {
	return zonePrefix(c.Zone) + "MU" + onOff(c.On)
}

func (c SetVolume) wire() string {
	if c.Zone == core.ZoneMain {
		return "MV" + FormatVolume(c.Zone, c.Value)
	}
	return zonePrefix(c.Zone) + FormatVolume(c.Zone, c.Value)
}

func (c SetInput) wire() string {
	if c.Zone == core.ZoneMain {
		return "SI" + string(c.Device)
	}
	return zonePrefix(c.Zone) + string(c.Device)
}

func (QueryVitals) wire() string {
	return strings.Join(vitalsQueries, lineEnd)
}

// Encode returns the exact bytes to write for cmd: upper-cased and
// terminated with CR LF.
func Encode(cmd Command) string {
	return strings.ToUpper(cmd.wire()) + lineEnd
}

// FormatVolume renders a volume as the receiver's digit token. Main uses
// three digits when the value has a half step (805 = 80.5) and Zone 2/3
// always use at most two.
func FormatVolume(z core.ZoneID, v float64) string {
	n := int(v * 10)
	if n < 0 {
		n = 0
	}
	if n > 999 {
		n = 999
	}

	s := strconv.Itoa(n)
	switch len(s) {
	case 1:
		if n == 0 {
			s = "00"
		} else {
			s = "00" + s
		}
	case 2:
		s = "0" + s
	}

	if z != core.ZoneMain && len(s) == 3 {
		s = s[:2]
	}
	return s
}

package avr

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/tessro/telepath/internal/core"
)

// DeltaKind identifies which part of the receiver state a Delta changes.
type DeltaKind int

const (
	DeltaMaxVolume DeltaKind = iota + 1
	DeltaGlobalPower
	DeltaZoneVolume
	DeltaZonePower
	DeltaZoneMute
	DeltaZoneInput
	// DeltaZonePresent only marks the zone as existing.
	DeltaZonePresent
)

// Delta is a single state change decoded from one status line.
type Delta struct {
	Kind  DeltaKind
	Zone  core.ZoneID
	On    bool
	Value float64
	Input core.InputDevice
}

// ParseLine decodes one status line. ok is false for lines that carry
// nothing the engine tracks; those are ignored, never treated as errors.
func ParseLine(line string) (d Delta, ok bool) {
	line = strings.Trim(line, "\n")

	switch {
	case strings.HasPrefix(line, "MVMAX"):
		fields := strings.Fields(line[len("MVMAX"):])
		if len(fields) == 0 {
			return Delta{}, false
		}
		return Delta{Kind: DeltaMaxVolume, Value: ParseVolume(fields[len(fields)-1])}, true

	case strings.HasPrefix(line, "MV"):
		return Delta{Kind: DeltaZoneVolume, Zone: core.ZoneMain, Value: ParseVolume(line[2:])}, true

	case strings.HasPrefix(line, "Z2") && len(line) >= 4:
		return parseZoneLine(core.Zone2, line[2:]), true

	case strings.HasPrefix(line, "Z3") && len(line) >= 4:
		return parseZoneLine(core.Zone3, line[2:]), true

	case strings.HasPrefix(line, "PW"):
		return Delta{Kind: DeltaGlobalPower, On: line[2:] == "ON"}, true

	case strings.HasPrefix(line, "ZM"):
		// Main zone power under its zone mnemonic. Zone 2 presence is
		// deliberately left alone.
		rest := line[2:]
		if rest != "ON" && rest != "OFF" {
			return Delta{}, false
		}
		return Delta{Kind: DeltaZonePower, Zone: core.ZoneMain, On: rest == "ON"}, true

	case strings.HasPrefix(line, "MU"):
		return Delta{Kind: DeltaZoneMute, Zone: core.ZoneMain, On: line[2:] == "ON"}, true

	case strings.HasPrefix(line, "SI"):
		dev, err := core.ParseInputDevice(line[2:])
		if err != nil {
			return Delta{}, false
		}
		return Delta{Kind: DeltaZoneInput, Zone: core.ZoneMain, Input: dev}, true
	}

	return Delta{}, false
}

// parseZoneLine decodes the remainder of a Z2/Z3 line.
func parseZoneLine(z core.ZoneID, rest string) Delta {
	switch {
	case strings.HasPrefix(rest, "MU"):
		return Delta{Kind: DeltaZoneMute, Zone: z, On: rest[2:] == "ON"}
	case rest == "ON" || rest == "OFF":
		return Delta{Kind: DeltaZonePower, Zone: z, On: rest == "ON"}
	}

	// Zone 2/3 have no half steps.
	if n, err := strconv.Atoi(rest); err == nil {
		return Delta{Kind: DeltaZoneVolume, Zone: z, Value: float64(n)}
	}
	if dev, err := core.ParseInputDevice(rest); err == nil {
		return Delta{Kind: DeltaZoneInput, Zone: z, Input: dev}
	}
	return Delta{Kind: DeltaZonePresent, Zone: z}
}

// ParseVolume decodes a volume token. A three character token carries one
// implied decimal (805 = 80.5); malformed tokens decode as zero.
func ParseVolume(token string) float64 {
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	if len(token) == 3 {
		return float64(n) / 10
	}
	return float64(n)
}

// ScanLines is a bufio.SplitFunc that splits the receiver stream on CR.
// Stray LF bytes around a line are dropped.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\r'); i >= 0 {
		return i + 1, bytes.Trim(data[:i], "\n"), nil
	}
	if atEOF {
		return len(data), bytes.Trim(data, "\n"), nil
	}
	return 0, nil, nil
}

// LimitLines wraps ScanLines so a line longer than limit bytes is skipped
// through its terminating CR instead of failing the scan.
func LimitLines(limit int) bufio.SplitFunc {
	discarding := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if discarding {
			i := bytes.IndexByte(data, '\r')
			if i < 0 {
				return len(data), nil, nil
			}
			discarding = false
			return i + 1, nil, nil
		}

		advance, token, err := ScanLines(data, atEOF)
		if advance == 0 && token == nil && err == nil && len(data) >= limit {
			discarding = true
			return len(data), nil, nil
		}
		return advance, token, err
	}
}

package core

import (
	"fmt"
	"strings"
)

// ZoneID identifies an independently controlled output of the receiver.
type ZoneID int

const (
	ZoneMain ZoneID = iota
	Zone2
	Zone3
)

// NumZones is the number of zones a receiver can expose.
const NumZones = 3

// Zones lists every zone in ordinal order.
var Zones = []ZoneID{ZoneMain, Zone2, Zone3}

// String returns the display name of the zone.
func (z ZoneID) String() string {
	switch z {
	case ZoneMain:
		return "Main"
	case Zone2:
		return "Zone 2"
	case Zone3:
		return "Zone 3"
	default:
		return fmt.Sprintf("Zone(%d)", int(z))
	}
}

// Key returns the config key prefix for the zone (zone1, zone2, zone3).
func (z ZoneID) Key() string {
	return fmt.Sprintf("zone%d", int(z)+1)
}

// Valid reports whether z is one of the known zones.
func (z ZoneID) Valid() bool {
	return z >= ZoneMain && z <= Zone3
}

// ParseZone parses a zone name such as "main", "2", "zone3" or "z2".
func ParseZone(s string) (ZoneID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "1", "zone1", "z1", "zm":
		return ZoneMain, nil
	case "2", "zone2", "z2":
		return Zone2, nil
	case "3", "zone3", "z3":
		return Zone3, nil
	}
	return 0, fmt.Errorf("unknown zone %q (must be main, 2 or 3)", s)
}

// ZoneState is the last observed power, mute and volume of a zone.
type ZoneState struct {
	Powered bool    `json:"powered"`
	Muted   bool    `json:"muted"`
	Volume  float64 `json:"volume"`
}

package config

import "github.com/tessro/telepath/internal/core"

// VolumeCeiling returns the user's volume limit for z.
func (c ZonesConfig) VolumeCeiling(z core.ZoneID) float64 {
	switch z {
	case core.Zone2:
		return c.Zone2Limit
	case core.Zone3:
		return c.Zone3Limit
	default:
		return c.Zone1Limit
	}
}

// SelectedZone returns the zone hardware volume keys control. Unparseable
// values fall back to Main.
func (c ZonesConfig) SelectedZone() core.ZoneID {
	z, err := core.ParseZone(c.Selected)
	if err != nil {
		return core.ZoneMain
	}
	return z
}

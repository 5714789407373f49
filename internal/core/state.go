package core

// ReceiverState is a snapshot of everything known about the connected receiver.
// A nil entry in Zones means the zone has not been seen on this connection.
type ReceiverState struct {
	Connected   bool                  `json:"connected"`
	Demo        bool                  `json:"demo"`
	GlobalPower bool                  `json:"power"`
	MaxVolume   *float64              `json:"max_volume,omitempty"`
	Zones       [NumZones]*ZoneState  `json:"zones"`
	Inputs      [NumZones]InputDevice `json:"inputs"`
}

// NewReceiverState returns an empty state with no zones present.
func NewReceiverState() ReceiverState {
	return ReceiverState{
		Inputs: [NumZones]InputDevice{InputSelect, InputSelect, InputSelect},
	}
}

// Zone returns the state of z and whether the zone is present.
func (s ReceiverState) Zone(z ZoneID) (ZoneState, bool) {
	if !z.Valid() || s.Zones[z] == nil {
		return ZoneState{}, false
	}
	return *s.Zones[z], true
}

// Present reports whether z has been observed on this connection.
func (s ReceiverState) Present(z ZoneID) bool {
	return z.Valid() && s.Zones[z] != nil
}

// ActiveZones returns the present zones in ordinal order.
func (s ReceiverState) ActiveZones() []ZoneID {
	var zones []ZoneID
	for _, z := range Zones {
		if s.Zones[z] != nil {
			zones = append(zones, z)
		}
	}
	return zones
}

// HasMaxVolume returns true once the receiver has reported its volume ceiling.
func (s ReceiverState) HasMaxVolume() bool {
	return s.MaxVolume != nil
}

// VolumePercent returns the zone volume relative to the receiver maximum (0-1).
// ok is false until both the zone and the maximum are known.
func (s ReceiverState) VolumePercent(z ZoneID) (percent float64, ok bool) {
	zs, present := s.Zone(z)
	if !present || s.MaxVolume == nil || *s.MaxVolume <= 0 {
		return 0, false
	}
	return zs.Volume / *s.MaxVolume, true
}

// Clone returns a deep copy that shares no pointers with s.
func (s ReceiverState) Clone() ReceiverState {
	out := s
	if s.MaxVolume != nil {
		v := *s.MaxVolume
		out.MaxVolume = &v
	}
	for i, zs := range s.Zones {
		if zs != nil {
			cp := *zs
			out.Zones[i] = &cp
		}
	}
	return out
}

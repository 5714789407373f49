package core

import (
	"fmt"
	"strings"
)

// InputDevice is a source the receiver can route to a zone.
type InputDevice string

const (
	InputSelect    InputDevice = "select"
	InputCD        InputDevice = "cd"
	InputTuner     InputDevice = "tuner"
	InputDVD       InputDevice = "dvd"
	InputBD        InputDevice = "bd"
	InputTV        InputDevice = "tv"
	InputSatCbl    InputDevice = "sat/cbl"
	InputMPlay     InputDevice = "mplay"
	InputGame      InputDevice = "game"
	InputHDRadio   InputDevice = "hdradio"
	InputNet       InputDevice = "net"
	InputPandora   InputDevice = "pandora"
	InputSiriusXM  InputDevice = "siriusxm"
	InputSpotify   InputDevice = "spotify"
	InputLastFM    InputDevice = "lastfm"
	InputFlickr    InputDevice = "flickr"
	InputIRadio    InputDevice = "iradio"
	InputServer    InputDevice = "server"
	InputFavorites InputDevice = "favorites"
	InputAux1      InputDevice = "aux1"
	InputAux2      InputDevice = "aux2"
	InputAux3      InputDevice = "aux3"
	InputAux4      InputDevice = "aux4"
	InputAux5      InputDevice = "aux5"
	InputAux6      InputDevice = "aux6"
	InputAux7      InputDevice = "aux7"
)

// InputDevices lists every selectable input. InputSelect is a placeholder
// meaning "unknown" and is not included.
var InputDevices = []InputDevice{
	InputCD, InputTuner, InputDVD, InputBD, InputTV, InputSatCbl, InputMPlay,
	InputGame, InputHDRadio, InputNet, InputPandora, InputSiriusXM, InputSpotify,
	InputLastFM, InputFlickr, InputIRadio, InputServer, InputFavorites,
	InputAux1, InputAux2, InputAux3, InputAux4, InputAux5, InputAux6, InputAux7,
}

// Valid reports whether d is a selectable input.
func (d InputDevice) Valid() bool {
	for _, known := range InputDevices {
		if d == known {
			return true
		}
	}
	return false
}

// ParseInputDevice parses an input name case-insensitively.
func ParseInputDevice(s string) (InputDevice, error) {
	d := InputDevice(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown input %q", s)
	}
	return d, nil
}

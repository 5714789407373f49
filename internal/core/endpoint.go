package core

// Endpoint is a receiver reachable on the network. Identity is the address;
// the name is cosmetic.
type Endpoint struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// DemoAddress is the address of the offline demo receiver.
const DemoAddress = "DEMO"

// DemoEndpoint puts the connection into demo mode: no network I/O, state is
// only mutated locally.
var DemoEndpoint = Endpoint{Name: "Demo Receiver", Address: DemoAddress}

// Equal reports whether two endpoints refer to the same receiver.
func (e Endpoint) Equal(other Endpoint) bool {
	return e.Address == other.Address
}

// IsDemo returns true for the demo sentinel.
func (e Endpoint) IsDemo() bool {
	return e.Address == DemoAddress
}

// DisplayName returns the name, falling back to the address.
func (e Endpoint) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Address
}

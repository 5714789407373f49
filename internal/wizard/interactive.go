package wizard

import (
	"os"

	"golang.org/x/term"

	"github.com/tessro/telepath/internal/core"
	"github.com/tessro/telepath/internal/discovery"
)

// Interactive provides interactive fallback functionality.
type Interactive struct {
	enabled   bool
	receivers []discovery.Receiver
	current   core.Endpoint
}

// NewInteractive creates a new interactive handler.
func NewInteractive() *Interactive {
	return &Interactive{
		enabled: true,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// SetReceivers sets the receivers offered by the picker and marks the
// currently selected one.
func (i *Interactive) SetReceivers(receivers []discovery.Receiver, current core.Endpoint) {
	i.receivers = receivers
	i.current = current
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptReceiver launches the receiver picker if interactive mode is available.
// Returns the selected receiver, or nil if cancelled or not interactive.
func (i *Interactive) PromptReceiver() (*discovery.Receiver, error) {
	if !i.CanInteract() {
		return nil, nil
	}
	return RunReceiverPicker(i.receivers, i.current)
}

// PromptAddress asks for a receiver address if interactive mode is available.
func (i *Interactive) PromptAddress() (*core.Endpoint, error) {
	if !i.CanInteract() {
		return nil, nil
	}
	return RunAddressPrompt()
}

// NeedsReceiver returns true if no receiver could be chosen without asking.
func NeedsReceiver(flag string, receivers []discovery.Receiver) bool {
	return flag == "" && len(receivers) != 1
}

package avr

import "sync"

// pendingVolume is a single-slot mailbox holding the latest requested
// volume for one zone. Newer values overwrite older ones.
type pendingVolume struct {
	mu     sync.Mutex
	value  float64
	set    bool
	flight bool
}

// Enqueue overwrites the slot.
func (p *pendingVolume) Enqueue(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	p.set = true
}

// TakeAndClear empties the slot and returns what it held. A taken value
// counts as in flight until Settle or Requeue.
func (p *pendingVolume) TakeAndClear() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.set {
		return 0, false
	}
	v := p.value
	p.set = false
	p.flight = true
	return v, true
}

// Requeue puts v back unless a newer value has arrived meanwhile.
func (p *pendingVolume) Requeue(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flight = false
	if !p.set {
		p.value = v
		p.set = true
	}
}

// Settle marks the in-flight value as handled.
func (p *pendingVolume) Settle() {
	p.mu.Lock()
	p.flight = false
	p.mu.Unlock()
}

// Clear drops any queued value.
func (p *pendingVolume) Clear() {
	p.mu.Lock()
	p.set = false
	p.flight = false
	p.mu.Unlock()
}

// Idle reports whether nothing is queued or in flight.
func (p *pendingVolume) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.set && !p.flight
}

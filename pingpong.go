package vkr

// PingPong alternates between two storage buffer slots across simulation
// iterations. Readable always differs from Writable, and one Swap flips them.
type PingPong struct {
	readable int
}

// Readable is the slot holding last iteration's output.
func (p *PingPong) Readable() int { return p.readable }

// Writable is the slot this iteration writes into.
func (p *PingPong) Writable() int { return 1 - p.readable }

// Swap makes this iteration's output readable by the next.
func (p *PingPong) Swap() {
	p.readable = 1 - p.readable
}

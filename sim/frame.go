package sim

import (
	"github.com/holiman/uint256"
)

// Frame is the activation record for one in-progress call. It carries the
// caller and callee accounts, the invoked method, the value sent along with
// the call, and the frame's position in the call chain. Frames are owned
// exclusively by the simulator's stack: they are created by PushFrame and
// destroyed by PopFrame.
type Frame struct {
	from     *Account
	to       *Account
	method   string
	readonly bool
	value    *uint256.Int
	depth    int
}

// From returns the account that initiated this call.
func (f *Frame) From() *Account {
	return f.from
}

// To returns the account being executed by this call.
func (f *Frame) To() *Account {
	return f.to
}

// Method returns the name of the invoked method.
func (f *Frame) Method() string {
	return f.method
}

// IsReadOnly indicates whether storage writes are permitted within the frame.
func (f *Frame) IsReadOnly() bool {
	return f.readonly
}

// Value returns a copy of the value sent along with the call, in base units.
func (f *Frame) Value() *uint256.Int {
	return new(uint256.Int).Set(f.value)
}

// Depth returns the frame's position in the call chain. Depth values are
// assigned monotonically on push and are unique among active frames.
func (f *Frame) Depth() int {
	return f.depth
}

// PushFrame creates a new frame for a call from one account to another and
// places it on top of the stack. A nil value is treated as zero.
func (s *Simulator) PushFrame(from *Account, to *Account, readonly bool, method string, value *uint256.Int) {
	if value == nil {
		value = uint256.NewInt(0)
	}
	s.frames = append(s.frames, &Frame{
		from:     from,
		to:       to,
		method:   method,
		readonly: readonly,
		value:    new(uint256.Int).Set(value),
		depth:    s.frameDepth,
	})
	s.frameDepth++
}

// PopFrame removes the top frame from the stack and clears the shadow storage
// bucket for the depth just vacated, so a later frame reusing that depth never
// observes stale snapshots. Popping with no active frame is a programmer error
// and panics.
func (s *Simulator) PopFrame() {
	if len(s.frames) == 0 {
		panic("sim: frame stack underflow on pop")
	}
	s.frames = s.frames[:len(s.frames)-1]
	s.frameDepth--
	delete(s.frameShadow, s.frameDepth)
}

// CurrentFrame returns the top of the frame stack. Calling this with no active
// execution context is a usage error and panics.
func (s *Simulator) CurrentFrame() *Frame {
	if len(s.frames) == 0 {
		panic("sim: no active frame")
	}
	return s.frames[len(s.frames)-1]
}

// OriginFrame returns the bottom of the frame stack, i.e. the first frame
// pushed in the current call chain. Panics if no frame is active.
func (s *Simulator) OriginFrame() *Frame {
	if len(s.frames) == 0 {
		panic("sim: no active frame")
	}
	return s.frames[0]
}

// FrameDepth returns the number of currently active frames.
func (s *Simulator) FrameDepth() int {
	return len(s.frames)
}

// Caller returns the address of the account that initiated the current call.
func (s *Simulator) Caller() Address {
	return s.CurrentFrame().from.Address()
}

// Callee returns the address of the account currently executing.
func (s *Simulator) Callee() Address {
	return s.CurrentFrame().to.Address()
}

// Origin returns the address of the account that originated the entire call
// chain.
func (s *Simulator) Origin() Address {
	return s.OriginFrame().from.Address()
}

// Owner returns the address of the owner of the contract currently executing.
// Panics if the current callee is not a registered contract, as querying
// ownership outside a contract frame is a usage error.
func (s *Simulator) Owner() Address {
	callee := s.Callee()
	contract := s.contractsByAddress[callee]
	if contract == nil {
		panic("sim: current callee " + callee.Hex() + " is not a contract")
	}
	return contract.owner.Address()
}

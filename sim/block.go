package sim

// Block models the simulator's synthetic block clock: a monotonically
// increasing height/timestamp pair advanced once per state-mutating top-level
// action (deploy, transfer). It carries no consensus semantics; it only exists
// so contract code under test can observe heights and timestamps.
type Block struct {
	// height is the current simulated block height.
	height uint64

	// timestamp is the current simulated block timestamp, in microseconds.
	timestamp uint64

	// interval is the amount of simulated time, in microseconds, that passes
	// per block advanced.
	interval uint64
}

// NewBlock constructs a block clock from a caller-supplied initial height and
// timestamp. Construction is fully explicit so test runs stay reproducible.
func NewBlock(height uint64, timestamp uint64, interval uint64) *Block {
	return &Block{
		height:    height,
		timestamp: timestamp,
		interval:  interval,
	}
}

// Height returns the current simulated block height.
func (b *Block) Height() uint64 {
	return b.height
}

// Timestamp returns the current simulated block timestamp, in microseconds.
func (b *Block) Timestamp() uint64 {
	return b.timestamp
}

// Advance moves the clock forward by the provided number of blocks, advancing
// the timestamp proportionally.
func (b *Block) Advance(delta uint64) {
	b.height += delta
	b.timestamp += b.interval * delta
}

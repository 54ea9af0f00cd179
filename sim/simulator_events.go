package sim

import (
	"github.com/dioptra/simchain/events"
	"github.com/holiman/uint256"
)

// SimulatorEvents defines the event system for a Simulator.
type SimulatorEvents struct {
	// ContractDeployed emits events when a contract account has been allocated
	// and its instance constructed.
	ContractDeployed events.EventEmitter[ContractDeployedEvent]

	// TransferCompleted emits events when a value transfer (including any
	// nested fallback invocation) has completed successfully.
	TransferCompleted events.EventEmitter[TransferCompletedEvent]

	// FrameReverted emits events when a frame's storage writes have been
	// rolled back to their pre-frame state.
	FrameReverted events.EventEmitter[FrameRevertedEvent]
}

// ContractDeployedEvent describes an event where a new contract was deployed
// to the Simulator.
type ContractDeployedEvent struct {
	Simulator *Simulator
	Contract  *Contract
}

// TransferCompletedEvent describes an event where value moved between two
// accounts on the Simulator.
type TransferCompletedEvent struct {
	Simulator *Simulator
	From      Address
	To        Address
	Value     *uint256.Int
}

// FrameRevertedEvent describes an event where the storage written by an
// active frame was restored to its pre-frame state.
type FrameRevertedEvent struct {
	Simulator     *Simulator
	Depth         int
	SlotsRestored int
}

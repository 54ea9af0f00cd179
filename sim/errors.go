package sim

import (
	"github.com/pkg/errors"
)

// Sentinel errors surfaced by simulator operations. Fatal precondition
// violations (empty-stack access, pop underflow) are not represented here;
// those panic, as they indicate misuse of the simulator rather than a
// condition a test should handle.
var (
	// ErrContractNotFound indicates no contract is registered at the requested
	// address, or no registration matches a caller's type.
	ErrContractNotFound = errors.New("contract not found")

	// ErrNoAccount indicates a transfer targeted an address with no registered
	// account.
	ErrNoAccount = errors.New("no account registered at target address")

	// ErrInsufficientBalance indicates a transfer exceeded the sender's
	// available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrReadOnlyFrame indicates a storage write was attempted while the
	// current frame is readonly.
	ErrReadOnlyFrame = errors.New("storage write in readonly frame")

	// ErrNilFactory indicates a deployment was attempted without a contract
	// factory.
	ErrNilFactory = errors.New("contract factory must not be nil")

	// ErrAliasBound indicates an alias type is already bound to a concrete
	// contract type.
	ErrAliasBound = errors.New("alias type already bound")

	// ErrMethodNotFound indicates a dispatched method does not exist on the
	// target contract instance.
	ErrMethodNotFound = errors.New("method not found on contract instance")
)

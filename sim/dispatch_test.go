package sim

import (
	"reflect"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterContract is a minimal contract fixture holding a single storage slot.
type counterContract struct {
	simulator *Simulator
}

func (c *counterContract) Put(value int) error {
	return c.simulator.PutStorage("count", value)
}

func (c *counterContract) Get() (int, error) {
	value, ok := c.simulator.GetStorage("count")
	if !ok {
		return 0, nil
	}
	return value.(int), nil
}

// PutThenRevert overwrites the slot and then explicitly rolls the frame back,
// modeling a method that fails after having written state.
func (c *counterContract) PutThenRevert(value int) error {
	if err := c.simulator.PutStorage("count", value); err != nil {
		return err
	}
	if err := c.simulator.RevertCurrentFrame(); err != nil {
		return err
	}
	return errors.New("counter update aborted")
}

// proxyContract forwards calls to a counter deployed elsewhere.
type proxyContract struct {
	simulator *Simulator
	counter   Address
}

func (p *proxyContract) Bump(value int) error {
	_, err := p.simulator.CallFromContract(p, nil, p.counter, "put", value)
	return err
}

// BumpAndAbort asks the counter to update and revert, then surfaces whether
// the counter's write survived.
func (p *proxyContract) BumpAndAbort(value int) (int, error) {
	_, err := p.simulator.CallFromContract(p, nil, p.counter, "putThenRevert", value)
	if err == nil {
		return 0, errors.New("expected nested call to fail")
	}
	result, err := p.simulator.CallFromContract(p, nil, p.counter, "get")
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (p *proxyContract) Pay(target Address, value *uint256.Int) error {
	_, err := p.simulator.CallFromContract(p, value, target, "")
	return err
}

// vaultContract records the identity observed by its fallback so tests can
// assert the shape of the implicit frame a payment runs under.
type vaultContract struct {
	simulator     *Simulator
	deposits      int
	lastFrom      Address
	lastTo        Address
	lastValue     *uint256.Int
	observedDepth int
}

func (v *vaultContract) Fallback() {
	frame := v.simulator.CurrentFrame()
	v.deposits++
	v.lastFrom = frame.From().Address()
	v.lastTo = frame.To().Address()
	v.lastValue = frame.Value()
	v.observedDepth = v.simulator.FrameDepth()
}

// TestDeployConstructsWithinInitFrame verifies the factory runs inside a frame whose caller is the deployer and
// whose callee is the fresh contract account, with ownership already resolvable.
func TestDeployConstructsWithinInitFrame(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)

	var observedCaller, observedOwner Address
	var observedMethod string
	contract, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		observedCaller = simulator.Caller()
		observedOwner = simulator.Owner()
		observedMethod = simulator.CurrentFrame().Method()
		return &counterContract{simulator: simulator}, nil
	})
	require.NoError(t, err)

	assert.EqualValues(t, owner.Address(), observedCaller)
	assert.EqualValues(t, owner.Address(), observedOwner)
	assert.EqualValues(t, InitMethod, observedMethod)
	resolved, err := simulator.ContractAt(contract.Address())
	require.NoError(t, err)
	assert.EqualValues(t, contract, resolved)
	assert.True(t, simulator.IsContractAddress(contract.Address()))
	assert.EqualValues(t, owner, contract.Owner())

	// The <init> frame must be gone once deployment returns.
	assert.EqualValues(t, 0, simulator.FrameDepth())
}

// TestDeployAdvancesBlock verifies each deployment ticks the block clock by one interval.
func TestDeployAdvancesBlock(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)
	startHeight := simulator.Block().Height()
	startTime := simulator.Block().Timestamp()

	_, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &counterContract{simulator: simulator}, nil
	})
	require.NoError(t, err)

	assert.EqualValues(t, startHeight+1, simulator.Block().Height())
	assert.EqualValues(t, startTime+simulator.Config().BlockIntervalMicros, simulator.Block().Timestamp())
}

// TestDeployErrors verifies a nil factory is rejected and a failing factory leaves no frame behind.
func TestDeployErrors(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)

	_, err := simulator.Deploy(owner, nil)
	assert.ErrorIs(t, err, ErrNilFactory)

	_, err = simulator.Deploy(owner, func(params ...any) (any, error) {
		return nil, errors.New("missing deployment parameter")
	})
	assert.Error(t, err)
	assert.EqualValues(t, 0, simulator.FrameDepth())
}

// TestCallDispatch verifies method resolution, parameter passing, result extraction, and the unknown-method error.
func TestCallDispatch(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)
	contract, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &counterContract{simulator: simulator}, nil
	})
	require.NoError(t, err)

	// Lowercase method names dispatch onto the exported Go method.
	_, err = simulator.Call(owner, nil, contract.Address(), "put", 10)
	require.NoError(t, err)

	result, err := simulator.Call(owner, nil, contract.Address(), "get")
	require.NoError(t, err)
	assert.EqualValues(t, 10, result)

	_, err = simulator.Call(owner, nil, contract.Address(), "destroy")
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = simulator.Call(owner, nil, deriveAddress(999), "get")
	assert.ErrorIs(t, err, ErrContractNotFound)
}

// TestNestedCallRevert verifies the canonical failure-handling flow: an outer frame writes a slot, a nested call
// overwrites it and explicitly reverts, and the outer frame's value is intact afterward.
func TestNestedCallRevert(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)

	counter, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &counterContract{simulator: simulator}, nil
	})
	require.NoError(t, err)
	proxy, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &proxyContract{simulator: simulator, counter: counter.Address()}, nil
	})
	require.NoError(t, err)

	_, err = simulator.Call(owner, nil, counter.Address(), "put", 10)
	require.NoError(t, err)

	result, err := simulator.Call(owner, nil, proxy.Address(), "bumpAndAbort", 20)
	require.NoError(t, err)
	assert.EqualValues(t, 10, result)
}

// TestCallFromContractResolution verifies calls made on behalf of a contract instance resolve the correct caller
// account, and that alias registrations extend resolution to wrapper types.
func TestCallFromContractResolution(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)

	counter, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &counterContract{simulator: simulator}, nil
	})
	require.NoError(t, err)
	proxy, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &proxyContract{simulator: simulator, counter: counter.Address()}, nil
	})
	require.NoError(t, err)

	_, err = simulator.Call(owner, nil, proxy.Address(), "bump", 5)
	require.NoError(t, err)
	result, err := simulator.Call(owner, nil, counter.Address(), "get")
	require.NoError(t, err)
	assert.EqualValues(t, 5, result)

	// An unregistered caller type cannot resolve until an alias binds it.
	type proxyWrapper struct{ *proxyContract }
	wrapper := &proxyWrapper{proxy.Instance().(*proxyContract)}
	_, err = simulator.CallFromContract(wrapper, nil, counter.Address(), "put", 6)
	assert.ErrorIs(t, err, ErrContractNotFound)

	err = simulator.RegisterAlias(reflect.TypeOf(wrapper), reflect.TypeOf(proxy.Instance()))
	require.NoError(t, err)
	_, err = simulator.CallFromContract(wrapper, nil, counter.Address(), "put", 6)
	require.NoError(t, err)

	// Rebinding an alias is rejected.
	err = simulator.RegisterAlias(reflect.TypeOf(wrapper), reflect.TypeOf(counter.Instance()))
	assert.ErrorIs(t, err, ErrAliasBound)
}

// TestTransferBalances verifies transfers move value exactly, allow draining a balance to zero, and fail without
// mutating balances when funds or the target account are missing.
func TestTransferBalances(t *testing.T) {
	simulator := createSimulator(t)
	alice := simulator.CreateAccount(2)
	bob := simulator.CreateAccount(0)
	balance := alice.Balance()

	// Drain the entire balance.
	err := simulator.Transfer(alice, bob.Address(), balance)
	require.NoError(t, err)
	assert.True(t, alice.Balance().IsZero())
	assert.EqualValues(t, balance, bob.Balance())

	// One base unit over the balance fails and moves nothing.
	over := new(uint256.Int).AddUint64(bob.Balance(), 1)
	err = simulator.Transfer(bob, alice.Address(), over)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, alice.Balance().IsZero())
	assert.EqualValues(t, balance, bob.Balance())

	// A target with no registered account fails and moves nothing.
	err = simulator.Transfer(bob, deriveAddress(999), uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrNoAccount)
	assert.EqualValues(t, balance, bob.Balance())
}

// TestTransferAdvancesBlock verifies every transfer attempt ticks the block clock, successful or not.
func TestTransferAdvancesBlock(t *testing.T) {
	simulator := createSimulator(t)
	alice := simulator.CreateAccount(1)
	bob := simulator.CreateAccount(0)
	startHeight := simulator.Block().Height()

	require.NoError(t, simulator.Transfer(alice, bob.Address(), uint256.NewInt(1)))
	assert.EqualValues(t, startHeight+1, simulator.Block().Height())

	err := simulator.Transfer(bob, deriveAddress(999), uint256.NewInt(1))
	assert.Error(t, err)
	assert.EqualValues(t, startHeight+2, simulator.Block().Height())
}

// TestTransferToContractInvokesFallback verifies paying a contract triggers exactly one fallback call under a frame
// whose caller is the payer, whose callee is the contract, and which carries the transferred value.
func TestTransferToContractInvokesFallback(t *testing.T) {
	simulator := createSimulator(t)
	alice := simulator.CreateAccount(1)

	vault, err := simulator.Deploy(alice, func(params ...any) (any, error) {
		return &vaultContract{simulator: simulator}, nil
	})
	require.NoError(t, err)
	instance := vault.Instance().(*vaultContract)

	amount := uint256.NewInt(500)
	require.NoError(t, simulator.Transfer(alice, vault.Address(), amount))

	assert.EqualValues(t, 1, instance.deposits)
	assert.EqualValues(t, alice.Address(), instance.lastFrom)
	assert.EqualValues(t, vault.Address(), instance.lastTo)
	assert.EqualValues(t, amount, instance.lastValue)
	assert.EqualValues(t, 1, instance.observedDepth)
	assert.EqualValues(t, amount, vault.Account().Balance())

	// A transfer to a plain account must not touch the fallback.
	bob := simulator.CreateAccount(0)
	require.NoError(t, simulator.Transfer(alice, bob.Address(), uint256.NewInt(1)))
	assert.EqualValues(t, 1, instance.deposits)
}

// TestCallFromContractDegeneratesToTransfer verifies an empty or "fallback" method name sent from contract logic
// is routed as a plain value transfer.
func TestCallFromContractDegeneratesToTransfer(t *testing.T) {
	simulator := createSimulator(t)
	alice := simulator.CreateAccount(1)
	bob := simulator.CreateAccount(0)

	vault, err := simulator.Deploy(alice, func(params ...any) (any, error) {
		return &vaultContract{simulator: simulator}, nil
	})
	require.NoError(t, err)
	proxy, err := simulator.Deploy(alice, func(params ...any) (any, error) {
		return &proxyContract{simulator: simulator}, nil
	})
	require.NoError(t, err)

	// Fund the proxy, then have it pay the vault from its own logic.
	amount := uint256.NewInt(300)
	require.NoError(t, simulator.Transfer(alice, proxy.Address(), amount))
	proxyInstance := proxy.Instance().(*proxyContract)

	require.NoError(t, proxyInstance.Pay(vault.Address(), amount))
	vaultInstance := vault.Instance().(*vaultContract)
	assert.EqualValues(t, 2, vaultInstance.deposits)
	assert.EqualValues(t, proxy.Address(), vaultInstance.lastFrom)
	assert.True(t, proxy.Account().Balance().IsZero())

	// Paying a plain account the same way moves value without dispatch.
	require.NoError(t, simulator.Transfer(alice, proxy.Address(), amount))
	require.NoError(t, proxyInstance.Pay(bob.Address(), amount))
	assert.EqualValues(t, amount, bob.Balance())
}

// TestCallReadOnly verifies read-only calls may read storage but any write attempted under them fails.
func TestCallReadOnly(t *testing.T) {
	simulator := createSimulator(t)
	owner := simulator.CreateAccount(0)
	contract, err := simulator.Deploy(owner, func(params ...any) (any, error) {
		return &counterContract{simulator: simulator}, nil
	})
	require.NoError(t, err)

	_, err = simulator.Call(owner, nil, contract.Address(), "put", 9)
	require.NoError(t, err)

	result, err := simulator.CallReadOnly(owner, contract.Address(), "get")
	require.NoError(t, err)
	assert.EqualValues(t, 9, result)

	_, err = simulator.CallReadOnly(owner, contract.Address(), "put", 11)
	assert.ErrorIs(t, err, ErrReadOnlyFrame)

	result, err = simulator.Call(owner, nil, contract.Address(), "get")
	require.NoError(t, err)
	assert.EqualValues(t, 9, result)
}

// TestTransferCompletedEvent verifies a successful transfer publishes one event carrying the moved value.
func TestTransferCompletedEvent(t *testing.T) {
	simulator := createSimulator(t)
	alice := simulator.CreateAccount(1)
	bob := simulator.CreateAccount(0)

	var received []TransferCompletedEvent
	simulator.Events.TransferCompleted.Subscribe(func(event TransferCompletedEvent) error {
		received = append(received, event)
		return nil
	})

	amount := uint256.NewInt(7)
	require.NoError(t, simulator.Transfer(alice, bob.Address(), amount))
	err := simulator.Transfer(bob, deriveAddress(999), uint256.NewInt(1))
	assert.Error(t, err)

	require.Len(t, received, 1)
	assert.EqualValues(t, alice.Address(), received[0].From)
	assert.EqualValues(t, bob.Address(), received[0].To)
	assert.EqualValues(t, amount, received[0].Value)
}

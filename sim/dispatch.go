package sim

import (
	"reflect"
	"unicode"
	"unicode/utf8"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	// InitMethod is the method name recorded on the frame pushed around
	// contract construction.
	InitMethod = "<init>"

	// FallbackMethod is the implicit method invoked on a contract receiving a
	// plain value transfer with no named method.
	FallbackMethod = "fallback"
)

// ContractFactory constructs a deployable contract instance from deployment
// parameters. Factories are supplied by the test author, one per deployable
// type, replacing reflective constructor discovery with an explicit builder.
// Factories run inside the deployment's <init> frame, so identity accessors
// and storage are available during construction.
type ContractFactory func(params ...any) (any, error)

// Contract binds a deployed instance to its contract account and owner.
type Contract struct {
	account  *Account
	owner    *Account
	instance any
}

// Account returns the contract's account.
func (c *Contract) Account() *Account {
	return c.account
}

// Owner returns the account that deployed the contract.
func (c *Contract) Owner() *Account {
	return c.owner
}

// Address returns the address of the contract's account.
func (c *Contract) Address() Address {
	return c.account.Address()
}

// Instance returns the constructed contract instance.
func (c *Contract) Instance() any {
	return c.instance
}

// Deploy advances the block clock, allocates a fresh contract account, and
// constructs an instance via the provided factory inside an <init> frame. The
// contract is registered under its address before construction and under its
// concrete instance type after; the frame is popped even if construction
// fails. A nil factory is rejected.
func (s *Simulator) Deploy(owner *Account, factory ContractFactory, params ...any) (*Contract, error) {
	if factory == nil {
		return nil, errors.WithStack(ErrNilFactory)
	}
	s.block.Advance(1)

	contract := &Contract{
		account: s.newRegisteredAccount(true),
		owner:   owner,
	}
	s.contractsByAddress[contract.account.address] = contract

	// Construct the instance within an <init> frame so the factory observes
	// deployment identity (owner as caller, new contract as callee).
	var err error
	func() {
		s.PushFrame(owner, contract.account, false, InitMethod, nil)
		defer s.PopFrame()

		var instance any
		instance, err = factory(params...)
		if err != nil {
			err = errors.WithMessage(err, "contract construction failed")
			return
		}
		contract.instance = instance
		s.contractsByType[reflect.TypeOf(instance)] = contract
	}()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("deployed contract ", contract.Address().Hex(), " owned by ", owner.Address().Hex())
	err = s.Events.ContractDeployed.Publish(ContractDeployedEvent{
		Simulator: s,
		Contract:  contract,
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// RegisterAlias binds an alias type to a concrete contract instance type, so
// calls made on behalf of an instance embedded or wrapped by another type can
// resolve to the registered contract. Rebinding an existing alias is rejected.
func (s *Simulator) RegisterAlias(alias reflect.Type, concrete reflect.Type) error {
	if _, bound := s.typeAliases[alias]; bound {
		return errors.Wrapf(ErrAliasBound, "alias %s", alias)
	}
	s.typeAliases[alias] = concrete
	return nil
}

// ContractAt returns the contract registered at the provided address.
func (s *Simulator) ContractAt(target Address) (*Contract, error) {
	return s.resolveByAddress(target)
}

// resolveByAddress looks up the contract registered at an address.
func (s *Simulator) resolveByAddress(target Address) (*Contract, error) {
	contract := s.contractsByAddress[target]
	if contract == nil {
		return nil, errors.Wrapf(ErrContractNotFound, "address %s", target)
	}
	return contract, nil
}

// resolveByCallerType resolves a contract from the concrete type of a calling
// instance, consulting the explicit alias table when no exact registration
// exists.
func (s *Simulator) resolveByCallerType(callerType reflect.Type) (*Contract, error) {
	if contract := s.contractsByType[callerType]; contract != nil {
		return contract, nil
	}
	if concrete, ok := s.typeAliases[callerType]; ok {
		if contract := s.contractsByType[concrete]; contract != nil {
			return contract, nil
		}
	}
	return nil, errors.Wrapf(ErrContractNotFound, "caller type %s", callerType)
}

// Call resolves the contract at the target address and invokes the named
// method on it within a new frame. The frame records the provided caller,
// value, and method; it is popped when invocation completes, whether or not it
// succeeded. Storage written by a failed invocation is NOT reverted here;
// reverting is an explicit step for the caller during failure handling.
func (s *Simulator) Call(from *Account, value *uint256.Int, target Address, method string, params ...any) (any, error) {
	return s.call(from, false, value, target, method, params)
}

// CallReadOnly invokes the named method within a readonly, zero-value frame.
// Storage writes performed under the readonly frame fail with ErrReadOnlyFrame.
func (s *Simulator) CallReadOnly(from *Account, target Address, method string, params ...any) (any, error) {
	return s.call(from, true, nil, target, method, params)
}

func (s *Simulator) call(from *Account, readonly bool, value *uint256.Int, target Address, method string, params []any) (any, error) {
	contract, err := s.resolveByAddress(target)
	if err != nil {
		return nil, err
	}

	s.PushFrame(from, contract.account, readonly, method, value)
	defer s.PopFrame()
	return s.invoke(contract, method, params)
}

// CallFromContract routes a call made from within a contract's own logic,
// identifying the caller by its instance rather than an address. An empty
// method name or the literal "fallback" degenerates into a plain value
// transfer, mirroring how receiving value with no method models a payment.
func (s *Simulator) CallFromContract(callerInstance any, value *uint256.Int, target Address, method string, params ...any) (any, error) {
	from, err := s.resolveByCallerType(reflect.TypeOf(callerInstance))
	if err != nil {
		return nil, err
	}
	if method == "" || method == FallbackMethod {
		return nil, s.Transfer(from.account, target, value)
	}
	return s.Call(from.account, value, target, method, params...)
}

// Transfer advances the block clock and moves value from one account to
// another. Transfers exceeding the sender's balance, or targeting an address
// with no registered account, fail without mutating either balance. Paying a
// contract additionally triggers exactly one nested fallback call, itself
// subject to the usual frame and storage rules; balance movement is not undone
// if the fallback fails.
func (s *Simulator) Transfer(from *Account, target Address, value *uint256.Int) error {
	s.block.Advance(1)
	if value == nil {
		value = uint256.NewInt(0)
	}

	if from.balance.Lt(value) {
		return errors.Wrapf(ErrInsufficientBalance, "balance %s, transfer %s", from.balance.Dec(), value.Dec())
	}
	to := s.accounts[target]
	if to == nil {
		return errors.Wrapf(ErrNoAccount, "address %s", target)
	}

	from.SubtractBalance(value)
	to.AddBalance(value)
	s.logger.Debug("transferred ", value.Dec(), " from ", from.Address().Hex(), " to ", target.Hex())

	if to.IsContract() {
		if _, err := s.Call(from, value, target, FallbackMethod); err != nil {
			return err
		}
	}

	return s.Events.TransferCompleted.Publish(TransferCompletedEvent{
		Simulator: s,
		From:      from.Address(),
		To:        target,
		Value:     new(uint256.Int).Set(value),
	})
}

// invoke dispatches a method call on a contract instance through reflection.
// Method names are canonicalized to Go's exported form ("fallback" invokes
// Fallback). A trailing error return from the method propagates; the first
// remaining return value, if any, is the call result.
func (s *Simulator) invoke(contract *Contract, method string, params []any) (any, error) {
	receiver := reflect.ValueOf(contract.instance)
	target := receiver.MethodByName(exportedMethodName(method))
	if !target.IsValid() {
		return nil, errors.Wrapf(ErrMethodNotFound, "%s.%s", reflect.TypeOf(contract.instance), method)
	}

	in, err := buildCallArguments(target.Type(), params)
	if err != nil {
		return nil, errors.WithMessagef(err, "invoking %q", method)
	}

	outs := target.Call(in)
	return splitInvocationResults(outs)
}

// buildCallArguments converts loosely-typed call parameters into reflect
// values matching the method's signature, converting between compatible types
// where needed.
func buildCallArguments(methodType reflect.Type, params []any) ([]reflect.Value, error) {
	fixed := methodType.NumIn()
	if methodType.IsVariadic() {
		if len(params) < fixed-1 {
			return nil, errors.Errorf("expected at least %d params, got %d", fixed-1, len(params))
		}
	} else if len(params) != fixed {
		return nil, errors.Errorf("expected %d params, got %d", fixed, len(params))
	}

	in := make([]reflect.Value, len(params))
	for i, param := range params {
		// Determine the declared parameter type, unwrapping the variadic slice
		// element type for trailing arguments.
		var paramType reflect.Type
		if methodType.IsVariadic() && i >= fixed-1 {
			paramType = methodType.In(fixed - 1).Elem()
		} else {
			paramType = methodType.In(i)
		}

		if param == nil {
			in[i] = reflect.Zero(paramType)
			continue
		}
		value := reflect.ValueOf(param)
		if !value.Type().AssignableTo(paramType) {
			if !value.Type().ConvertibleTo(paramType) {
				return nil, errors.Errorf("param %d: cannot use %s as %s", i, value.Type(), paramType)
			}
			value = value.Convert(paramType)
		}
		in[i] = value
	}
	return in, nil
}

// errorInterface is used to detect trailing error returns during dispatch.
var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

// splitInvocationResults separates a reflected method's return values into a
// single result and an optional trailing error.
func splitInvocationResults(outs []reflect.Value) (any, error) {
	if len(outs) == 0 {
		return nil, nil
	}

	var err error
	last := outs[len(outs)-1]
	if last.Type().Implements(errorInterface) {
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		outs = outs[:len(outs)-1]
	}
	if len(outs) == 0 {
		return nil, err
	}
	return outs[0].Interface(), err
}

// exportedMethodName canonicalizes a dispatched method name to Go's exported
// form by upper-casing its first rune.
func exportedMethodName(method string) string {
	r, size := utf8.DecodeRuneInString(method)
	if r == utf8.RuneError {
		return method
	}
	return string(unicode.ToUpper(r)) + method[size:]
}

package sim

import (
	"github.com/holiman/uint256"
)

// OneToken is the number of base units in one whole token (18 decimals, the
// conventional denomination for simulated balances).
var OneToken = uint256.MustFromDecimal("1000000000000000000")

// Account represents a party known to the simulator, identified by address and
// holding a mutable balance. Accounts are created once and never destroyed
// during a test run. Contract accounts are additionally bound to a deployed
// instance through a Contract record held by the simulator.
type Account struct {
	// address is the unique identity of this account.
	address Address

	// contract indicates whether this account is a contract account rather than
	// an externally-owned one.
	contract bool

	// balance is the account's balance in base units.
	balance *uint256.Int
}

// newAccount constructs an account of the given kind with a zero balance.
func newAccount(address Address, contract bool) *Account {
	return &Account{
		address:  address,
		contract: contract,
		balance:  uint256.NewInt(0),
	}
}

// Address returns the account's address.
func (a *Account) Address() Address {
	return a.address
}

// IsContract indicates whether the account is a contract account.
func (a *Account) IsContract() bool {
	return a.contract
}

// Balance returns a copy of the account's current balance in base units.
func (a *Account) Balance() *uint256.Int {
	return new(uint256.Int).Set(a.balance)
}

// AddBalance credits the account by the provided amount of base units.
func (a *Account) AddBalance(value *uint256.Int) {
	if value == nil {
		return
	}
	a.balance.Add(a.balance, value)
}

// SubtractBalance debits the account by the provided amount of base units.
// Callers are expected to have verified sufficient balance beforehand.
func (a *Account) SubtractBalance(value *uint256.Int) {
	if value == nil {
		return
	}
	a.balance.Sub(a.balance, value)
}

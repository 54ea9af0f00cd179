package sim

import (
	"fmt"
	"reflect"

	"github.com/dioptra/simchain/logging"
	"github.com/dioptra/simchain/sim/config"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Simulator is a deterministic, in-process stand-in for a contract-execution
// environment, used to unit-test contract-like components without a real
// ledger. It owns the frame stack, the storage engine, the account and
// contract registries, and the synthetic block clock; multiple independent
// instances may coexist within one test process.
//
// A Simulator assumes a single logical thread of control: one call chain runs
// to completion (through nested, synchronous pushes and pops) before another
// begins. A harness executing tests concurrently must serialize access
// externally, since storage writes snapshot-then-write in multiple steps.
type Simulator struct {
	// cfg describes the configuration this simulator was created with.
	cfg *config.SimulatorConfig

	// frames is the stack of active call frames, bottom first.
	frames []*Frame

	// frameDepth is the depth that will be assigned to the next pushed frame.
	// It always equals len(frames).
	frameDepth int

	// accounts tracks every account known to this simulator by address.
	accounts map[Address]*Account

	// contractsByAddress resolves inbound calls targeted at a contract address.
	contractsByAddress map[Address]*Contract

	// contractsByType resolves calls made by a contract identified by its
	// concrete instance type. Populated at deploy time; a later deployment of
	// the same type shadows the earlier one.
	contractsByType map[reflect.Type]*Contract

	// typeAliases maps explicitly registered alias types to the concrete
	// contract type they resolve through.
	typeAliases map[reflect.Type]reflect.Type

	// storage is the live key-value store, keyed by contract address + logical
	// key.
	storage map[string]any

	// storageKinds records the declared type of each live storage entry.
	storageKinds map[string]reflect.Type

	// frameShadow records, per frame depth, the pre-frame state of every slot
	// written while that frame was active. Buckets are cleared when their depth
	// is vacated by PopFrame.
	frameShadow map[int]map[string]shadowEntry

	// nextID is the allocation counter used to derive fresh addresses.
	nextID uint64

	// block is the simulator's synthetic block clock.
	block *Block

	// logger is used to log simulator activity at trace/debug level.
	logger *logging.Logger

	// Events defines the event system for the Simulator.
	Events SimulatorEvents
}

// NewSimulator creates a simulator instance with the provided configuration.
// If a nil config is provided, a default one is used.
func NewSimulator(cfg *config.SimulatorConfig) (*Simulator, error) {
	// Use a default config if we were not provided one.
	var err error
	if cfg == nil {
		cfg, err = config.DefaultSimulatorConfig()
		if err != nil {
			return nil, err
		}
	}

	return &Simulator{
		cfg:                cfg,
		accounts:           make(map[Address]*Account),
		contractsByAddress: make(map[Address]*Contract),
		contractsByType:    make(map[reflect.Type]*Contract),
		typeAliases:        make(map[reflect.Type]reflect.Type),
		storage:            make(map[string]any),
		storageKinds:       make(map[string]reflect.Type),
		frameShadow:        make(map[int]map[string]shadowEntry),
		nextID:             1,
		block:              NewBlock(cfg.InitialBlockHeight, cfg.InitialBlockTimestamp, cfg.BlockIntervalMicros),
		logger:             logging.GlobalLogger.NewSubLogger("module", "sim"),
	}, nil
}

// SetLogger replaces the simulator's logger. Passing nil restores the
// disabled-by-default global logger.
func (s *Simulator) SetLogger(logger *logging.Logger) {
	if logger == nil {
		logger = logging.GlobalLogger.NewSubLogger("module", "sim")
		s.logger = logger
		return
	}
	s.logger = logger
}

// Config returns the configuration the simulator was created with.
func (s *Simulator) Config() *config.SimulatorConfig {
	return s.cfg
}

// Block returns the simulator's synthetic block clock.
func (s *Simulator) Block() *Block {
	return s.block
}

// newRegisteredAccount allocates a fresh account of the given kind, derives
// its address from the allocation counter, and registers it.
func (s *Simulator) newRegisteredAccount(contract bool) *Account {
	account := newAccount(deriveAddress(s.nextID), contract)
	s.nextID++
	s.accounts[account.address] = account
	return account
}

// CreateAccount creates a new externally-owned account funded with the given
// number of whole tokens.
func (s *Simulator) CreateAccount(tokens uint64) *Account {
	account := s.newRegisteredAccount(false)
	if tokens > 0 {
		account.AddBalance(s.tokensToBaseUnits(tokens))
	}
	s.logger.Debug("created account ", account.Address().Hex())
	return account
}

// tokensToBaseUnits scales a whole-token amount to base units using the
// configured token decimals.
func (s *Simulator) tokensToBaseUnits(tokens uint64) *uint256.Int {
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(s.cfg.TokenDecimals)))
	return new(uint256.Int).Mul(scale, uint256.NewInt(tokens))
}

// Account looks up a registered account by address.
func (s *Simulator) Account(address Address) (*Account, bool) {
	account, ok := s.accounts[address]
	return account, ok
}

// IsContractAddress indicates whether the provided address belongs to a
// registered contract account.
func (s *Simulator) IsContractAddress(address Address) bool {
	account, ok := s.accounts[address]
	return ok && account.IsContract()
}

// StateDumpAccount captures one account's state within a StateDump.
type StateDumpAccount struct {
	// Address is the account's address as a 0x-prefixed hex string.
	Address string `json:"address"`

	// Balance is the account's balance in base units, rendered in decimal.
	Balance string `json:"balance"`

	// Contract indicates whether the account is a contract account.
	Contract bool `json:"contract"`
}

// StateDumpEntry captures one live storage slot within a StateDump.
type StateDumpEntry struct {
	// Key is the full storage key (owner address + logical key).
	Key string `json:"key"`

	// Value is the stored value rendered as a string.
	Value string `json:"value"`

	// Kind is the declared type of the stored value, if any.
	Kind string `json:"kind,omitempty"`
}

// StateDump is a point-in-time export of a simulator's observable state, used
// by tooling to report the outcome of a run. It is purely an output format;
// dumps cannot be loaded back into a simulator.
type StateDump struct {
	BlockHeight    uint64             `json:"blockHeight"`
	BlockTimestamp uint64             `json:"blockTimestamp"`
	Accounts       []StateDumpAccount `json:"accounts"`
	Storage        []StateDumpEntry   `json:"storage"`
}

// DumpState exports the simulator's current accounts, balances, and live
// storage. Entries are sorted so dumps are deterministic across runs.
func (s *Simulator) DumpState() *StateDump {
	dump := &StateDump{
		BlockHeight:    s.block.Height(),
		BlockTimestamp: s.block.Timestamp(),
	}

	// Sort account addresses for deterministic output.
	addresses := maps.Keys(s.accounts)
	slices.SortFunc(addresses, func(a Address, b Address) int {
		return slices.Compare(a[:], b[:])
	})
	for _, address := range addresses {
		account := s.accounts[address]
		dump.Accounts = append(dump.Accounts, StateDumpAccount{
			Address:  address.Hex(),
			Balance:  account.Balance().Dec(),
			Contract: account.IsContract(),
		})
	}

	// Sort storage keys for deterministic output.
	keys := maps.Keys(s.storage)
	slices.Sort(keys)
	for _, key := range keys {
		entry := StateDumpEntry{
			Key:   key,
			Value: fmt.Sprintf("%v", s.storage[key]),
		}
		if kind := s.storageKinds[key]; kind != nil {
			entry.Kind = kind.String()
		}
		dump.Storage = append(dump.Storage, entry)
	}

	return dump
}

package scenario

import (
	"strings"

	"github.com/dioptra/simchain/logging"
	"github.com/dioptra/simchain/sim"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Runner executes scenarios, each against a fresh simulator instance.
type Runner struct {
	// logger is used to log run progress.
	logger *logging.Logger
}

// RunResult captures the outcome of one scenario run.
type RunResult struct {
	// RunID uniquely identifies this run in logs.
	RunID uuid.UUID

	// Scenario is the scenario that was executed.
	Scenario *Scenario

	// Simulator is the simulator the scenario ran against, in its final state.
	Simulator *sim.Simulator

	// StepsExecuted is the number of steps that completed (including steps
	// that failed as expected).
	StepsExecuted int
}

// NewRunner creates a scenario runner which logs through the provided logger.
// A nil logger defaults to the disabled global logger.
func NewRunner(logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.GlobalLogger.NewSubLogger("module", "scenario")
	}
	return &Runner{logger: logger}
}

// Run executes the provided scenario against a fresh simulator and returns the
// run result. A step failing unexpectedly, or succeeding when it was expected
// to fail, aborts the run with an error; the result so far is still returned.
func (r *Runner) Run(s *Scenario) (*RunResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Tag every log line from this run with a fresh run ID.
	result := &RunResult{
		RunID:    uuid.New(),
		Scenario: s,
	}
	logger := r.logger.NewSubLogger("run", result.RunID.String())
	logger.Info("running scenario ", s.Name)

	simulator, err := sim.NewSimulator(s.Config)
	if err != nil {
		return nil, err
	}
	simulator.SetLogger(logger)
	result.Simulator = simulator

	// Log completed transfers as they happen.
	simulator.Events.TransferCompleted.Subscribe(func(event sim.TransferCompletedEvent) error {
		logger.Info("transfer of ", event.Value.Dec(), " base units from ", event.From.Hex(), " to ", event.To.Hex())
		return nil
	})

	// Create the scenario's accounts.
	decimals := simulator.Config().TokenDecimals
	accounts := make(map[string]*sim.Account, len(s.Accounts))
	for _, definition := range s.Accounts {
		balance, err := parseTokenAmount(definition.Balance, decimals)
		if err != nil {
			return result, errors.WithMessagef(err, "account %q", definition.Name)
		}
		account := simulator.CreateAccount(0)
		account.AddBalance(balance)
		accounts[definition.Name] = account
		logger.Info("created account ", definition.Name, " at ", account.Address().Hex())
	}

	// Execute each step in order.
	for i, step := range s.Steps {
		if err := r.runStep(simulator, accounts, step, decimals); err != nil {
			if !step.ExpectError {
				return result, errors.WithMessagef(err, "step %d", i)
			}
			logger.Info("step ", i, " failed as expected: ", err.Error())
		} else if step.ExpectError {
			return result, errors.Errorf("step %d succeeded but was expected to fail", i)
		}
		result.StepsExecuted++
	}

	logger.Info("scenario ", s.Name, " completed, steps executed: ", result.StepsExecuted)
	return result, nil
}

// runStep executes a single scenario step.
func (r *Runner) runStep(simulator *sim.Simulator, accounts map[string]*sim.Account, step Step, decimals int) error {
	switch step.Op {
	case StepTransfer:
		value, err := parseTokenAmount(step.Amount, decimals)
		if err != nil {
			return err
		}
		target, err := resolveTarget(accounts, step.To)
		if err != nil {
			return err
		}
		return simulator.Transfer(accounts[step.From], target, value)
	case StepAdvance:
		simulator.Block().Advance(step.Blocks)
		return nil
	default:
		return errors.Errorf("unknown operation %q", step.Op)
	}
}

// resolveTarget resolves a step's target to an address: a known account name,
// or a raw 0x-prefixed address (which may be unregistered, to exercise
// missing-account behavior).
func resolveTarget(accounts map[string]*sim.Account, to string) (sim.Address, error) {
	if account, ok := accounts[to]; ok {
		return account.Address(), nil
	}
	if strings.HasPrefix(to, "0x") || strings.HasPrefix(to, "0X") {
		return sim.HexToAddress(to)
	}
	return sim.Address{}, errors.Errorf("unknown transfer target %q", to)
}

// parseTokenAmount converts a human-readable decimal token amount (e.g.
// "12.5") into base units. Amounts must be non-negative and must not have more
// fractional digits than the configured token decimals.
func parseTokenAmount(amount string, decimals int) (*uint256.Int, error) {
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if parsed.IsNegative() {
		return nil, errors.Errorf("amount %q must not be negative", amount)
	}

	// Scale to base units and require the result to be integral.
	scaled := parsed.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, errors.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	value, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, errors.Errorf("amount %q overflows the balance type", amount)
	}
	return value, nil
}

// Package scenario defines a JSON file format describing a deterministic
// sequence of simulator operations (account creation, transfers, clock
// advances) and a runner that executes it against a fresh simulator. It backs
// the CLI, giving a way to exercise transfer/fallback semantics without
// writing Go code.
package scenario

import (
	"encoding/json"
	"os"

	"github.com/dioptra/simchain/sim/config"
	"github.com/pkg/errors"
)

// Step operation kinds accepted in scenario files.
const (
	// StepTransfer moves value between two accounts.
	StepTransfer = "transfer"

	// StepAdvance advances the simulator's block clock.
	StepAdvance = "advance"
)

// Scenario describes a named, deterministic sequence of simulator operations.
type Scenario struct {
	// Name identifies the scenario in logs and reports.
	Name string `json:"name"`

	// Config optionally overrides the simulator configuration for this run.
	Config *config.SimulatorConfig `json:"config,omitempty"`

	// Accounts defines the externally-owned accounts created before any step
	// executes.
	Accounts []AccountDefinition `json:"accounts"`

	// Steps defines the operations executed in order.
	Steps []Step `json:"steps"`
}

// AccountDefinition describes one account created at the start of a run.
type AccountDefinition struct {
	// Name is the handle steps use to reference this account.
	Name string `json:"name"`

	// Balance is the account's starting balance in whole tokens, as a decimal
	// string (e.g. "12.5").
	Balance string `json:"balance"`
}

// Step describes a single scenario operation.
type Step struct {
	// Op selects the operation kind: "transfer" or "advance".
	Op string `json:"op"`

	// From names the sending account for a transfer.
	From string `json:"from,omitempty"`

	// To identifies the receiving party for a transfer: either an account name
	// defined in this scenario, or a raw 0x-prefixed address.
	To string `json:"to,omitempty"`

	// Amount is the value to transfer in whole tokens, as a decimal string.
	Amount string `json:"amount,omitempty"`

	// Blocks is the number of blocks to advance for an "advance" step.
	Blocks uint64 `json:"blocks,omitempty"`

	// ExpectError indicates the step is expected to fail; the run fails if it
	// succeeds instead.
	ExpectError bool `json:"expectError,omitempty"`
}

// ReadScenarioFromFile reads and validates a scenario from the provided JSON
// file path.
func ReadScenarioFromFile(path string) (*Scenario, error) {
	// Read the file contents
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Parse the scenario
	var s Scenario
	if err = json.Unmarshal(contents, &s); err != nil {
		return nil, errors.WithStack(err)
	}

	// Validate and return
	if err = s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario for structural errors: duplicate or unnamed
// accounts, steps with unknown operations, and transfer steps referencing
// undefined senders.
func (s *Scenario) Validate() error {
	names := make(map[string]struct{}, len(s.Accounts))
	for _, account := range s.Accounts {
		if account.Name == "" {
			return errors.New("scenario account has no name")
		}
		if _, exists := names[account.Name]; exists {
			return errors.Errorf("scenario defines account %q more than once", account.Name)
		}
		names[account.Name] = struct{}{}
	}

	for i, step := range s.Steps {
		switch step.Op {
		case StepTransfer:
			if _, known := names[step.From]; !known {
				return errors.Errorf("step %d: transfer from undefined account %q", i, step.From)
			}
			if step.To == "" {
				return errors.Errorf("step %d: transfer has no target", i)
			}
		case StepAdvance:
			if step.Blocks == 0 {
				return errors.Errorf("step %d: advance must move at least one block", i)
			}
		default:
			return errors.Errorf("step %d: unknown operation %q", i, step.Op)
		}
	}
	return nil
}

package scenario

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioValidation verifies structural validation catches malformed scenarios.
func TestScenarioValidation(t *testing.T) {
	valid := &Scenario{
		Name:     "basic",
		Accounts: []AccountDefinition{{Name: "alice", Balance: "10"}, {Name: "bob", Balance: "0"}},
		Steps: []Step{
			{Op: StepTransfer, From: "alice", To: "bob", Amount: "1"},
			{Op: StepAdvance, Blocks: 3},
		},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name     string
		scenario Scenario
	}{
		{"unnamed account", Scenario{Accounts: []AccountDefinition{{Balance: "1"}}}},
		{"duplicate account", Scenario{Accounts: []AccountDefinition{{Name: "a", Balance: "1"}, {Name: "a", Balance: "2"}}}},
		{"unknown op", Scenario{Steps: []Step{{Op: "mint"}}}},
		{"undefined sender", Scenario{Steps: []Step{{Op: StepTransfer, From: "ghost", To: "a", Amount: "1"}}}},
		{"missing target", Scenario{
			Accounts: []AccountDefinition{{Name: "a", Balance: "1"}},
			Steps:    []Step{{Op: StepTransfer, From: "a", Amount: "1"}},
		}},
		{"zero-block advance", Scenario{Steps: []Step{{Op: StepAdvance}}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Error(t, test.scenario.Validate())
		})
	}
}

// TestParseTokenAmount verifies decimal token amounts scale to base units and malformed amounts are rejected.
func TestParseTokenAmount(t *testing.T) {
	value, err := parseTokenAmount("12.5", 18)
	require.NoError(t, err)
	assert.EqualValues(t, "12500000000000000000", value.Dec())

	value, err = parseTokenAmount("0", 18)
	require.NoError(t, err)
	assert.True(t, value.IsZero())

	value, err = parseTokenAmount("0.000001", 6)
	require.NoError(t, err)
	assert.EqualValues(t, "1", value.Dec())

	_, err = parseTokenAmount("-1", 18)
	assert.Error(t, err)
	_, err = parseTokenAmount("0.0000001", 6)
	assert.Error(t, err)
	_, err = parseTokenAmount("twelve", 18)
	assert.Error(t, err)
}

// TestReadScenarioFromFile verifies scenarios load from JSON files and invalid files are rejected.
func TestReadScenarioFromFile(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "scenario.json")
	contents, err := json.Marshal(&Scenario{
		Name:     "from-file",
		Accounts: []AccountDefinition{{Name: "alice", Balance: "2"}},
		Steps:    []Step{{Op: StepAdvance, Blocks: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, contents, 0644))

	s, err := ReadScenarioFromFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, "from-file", s.Name)
	require.Len(t, s.Accounts, 1)

	_, err = ReadScenarioFromFile(filepath.Join(directory, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(directory, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = ReadScenarioFromFile(bad)
	assert.Error(t, err)
}

// TestRunnerExecutesScenario runs a full scenario and verifies balances, the block clock, and the expected-failure
// step handling.
func TestRunnerExecutesScenario(t *testing.T) {
	s := &Scenario{
		Name:     "transfers",
		Accounts: []AccountDefinition{{Name: "alice", Balance: "10"}, {Name: "bob", Balance: "0"}},
		Steps: []Step{
			{Op: StepTransfer, From: "alice", To: "bob", Amount: "2.5"},
			{Op: StepAdvance, Blocks: 4},
			// Bob cannot cover this, and the scenario says so.
			{Op: StepTransfer, From: "bob", To: "alice", Amount: "100", ExpectError: true},
		},
	}

	result, err := NewRunner(nil).Run(s)
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.StepsExecuted)

	dump := result.Simulator.DumpState()
	require.Len(t, dump.Accounts, 2)

	balances := make(map[string]bool)
	for _, account := range dump.Accounts {
		balances[account.Balance] = true
	}
	assert.True(t, balances["7500000000000000000"])
	assert.True(t, balances["2500000000000000000"])

	// Two transfer attempts plus the explicit four-block advance.
	assert.EqualValues(t, 6, result.Simulator.Block().Height())
}

// TestRunnerUnexpectedOutcomes verifies the run aborts when a step fails unexpectedly or succeeds when failure was
// declared.
func TestRunnerUnexpectedOutcomes(t *testing.T) {
	runner := NewRunner(nil)

	// A raw address target with no registered account fails the run.
	failing := &Scenario{
		Name:     "missing-target",
		Accounts: []AccountDefinition{{Name: "alice", Balance: "1"}},
		Steps: []Step{
			{Op: StepTransfer, From: "alice", To: "0x0000000000000000000000000000000000000001", Amount: "1"},
		},
	}
	result, err := runner.Run(failing)
	assert.Error(t, err)
	assert.EqualValues(t, 0, result.StepsExecuted)

	// A step that succeeds despite ExpectError also fails the run.
	surprising := &Scenario{
		Name:     "unexpected-success",
		Accounts: []AccountDefinition{{Name: "alice", Balance: "1"}, {Name: "bob", Balance: "0"}},
		Steps: []Step{
			{Op: StepTransfer, From: "alice", To: "bob", Amount: "1", ExpectError: true},
		},
	}
	result, err = runner.Run(surprising)
	assert.Error(t, err)
	assert.EqualValues(t, 0, result.StepsExecuted)
}

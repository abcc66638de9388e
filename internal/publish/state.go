package publish

import (
	foundationerrors "git.home.luguber.info/inful/sitepub/internal/foundation/errors"
)

// State is a step of the publish sequence.
type State int

const (
	StateIdle State = iota
	StatePreconditionChecked
	StateBranchSwitched
	StatePurged
	StatePopulated
	StateCommitted
	StateRestored
)

var stateNames = [...]string{
	StateIdle:                "idle",
	StatePreconditionChecked: "precondition_checked",
	StateBranchSwitched:      "branch_switched",
	StatePurged:              "purged",
	StatePopulated:           "populated",
	StateCommitted:           "committed",
	StateRestored:            "restored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s ends a successful publish.
func (s State) Terminal() bool {
	return s == StateRestored
}

// machine tracks the current state and the states reached so far.
type machine struct {
	state   State
	reached []State
}

// advance moves to the next state. Skipping or repeating a state is an
// internal error.
func (m *machine) advance(to State) error {
	if to != m.state+1 || to > StateRestored {
		return foundationerrors.InternalError("invalid publish transition").
			WithContext("from", m.state.String()).
			WithContext("to", to.String()).
			Build()
	}
	m.state = to
	m.reached = append(m.reached, to)
	return nil
}

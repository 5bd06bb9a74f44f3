// Package fsm implements a small finite-state-machine driver.
//
// A StateMachine maps every state to a callback and an ordered list of guarded
// transitions. Each call to Step runs the callback of the current state, then
// fires the first transition whose guard holds. The driver knows nothing about
// what the callbacks do; it is shared by the oracle synchronization machines
// and by anything else that needs to advance one step per tick.
package fsm

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrUnknownState is returned when a state name is not part of the machine.
var ErrUnknownState = errors.New("unknown state")

// Callback is run on every step spent in a state. An error aborts the step.
type Callback func() error

// Guard decides whether a transition fires. Guards are evaluated on every step
// and must not have side effects.
type Guard func() bool

// Action runs when its transition fires, before the state changes.
type Action func()

// Always is the guard of unconditional transitions.
func Always() bool { return true }

// Transition ...
type Transition struct {
	Next   string
	Guard  Guard
	Action Action
}

// State ...
type State struct {
	Callback    Callback
	Transitions []Transition
}

// StateMachine ...
type StateMachine struct {
	name    string
	states  map[string]State
	current string
	logger  *logrus.Entry
}

// NewStateMachine checks that the initial state and every transition target
// exist.
func NewStateMachine(name string, initial string, states map[string]State, logger *logrus.Entry) (*StateMachine, error) {
	if _, ok := states[initial]; !ok {
		return nil, fmt.Errorf("%s: initial state %q: %w", name, initial, ErrUnknownState)
	}

	for from, s := range states {
		for _, t := range s.Transitions {
			if _, ok := states[t.Next]; !ok {
				return nil, fmt.Errorf("%s: transition %s -> %q: %w", name, from, t.Next, ErrUnknownState)
			}
		}
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	return &StateMachine{
		name:    name,
		states:  states,
		current: initial,
		logger:  logger.WithField("fsm", name),
	}, nil
}

// Name ...
func (m *StateMachine) Name() string {
	return m.name
}

// Current returns the name of the current state.
func (m *StateMachine) Current() string {
	return m.current
}

// SetState forces the current state, without running any action. Hosts use it
// to restore a saved position.
func (m *StateMachine) SetState(state string) error {
	if _, ok := m.states[state]; !ok {
		return fmt.Errorf("%s: %q: %w", m.name, state, ErrUnknownState)
	}
	m.current = state
	return nil
}

// Step runs the current state's callback and then at most one transition.
func (m *StateMachine) Step() error {
	state := m.states[m.current]

	if state.Callback != nil {
		if err := state.Callback(); err != nil {
			return fmt.Errorf("%s: %s: %w", m.name, m.current, err)
		}
	}

	for _, t := range state.Transitions {
		if t.Guard != nil && !t.Guard() {
			continue
		}

		if t.Action != nil {
			t.Action()
		}

		if t.Next != m.current {
			m.logger.WithFields(logrus.Fields{
				"from": m.current,
				"to":   t.Next,
			}).Debug("Transition")
		}

		m.current = t.Next
		break
	}

	return nil
}

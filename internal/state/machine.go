////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package state holds the search state machine. A search moves from
// NotStarted to Searching and then makes exactly one terminal transition to
// Found, Exhausted or TimedOut.
package state

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Machine is the core state machine object.
type Machine struct {
	// holds the state
	outcome Outcome
	// mux to ensure proper access to state
	mux sync.RWMutex

	// used to signal to waiting threads that a state change has occurred
	signal chan Outcome

	// holds valid state transitions
	stateMap [][]bool
}

// NewMachine builds a machine in the NotStarted state.
func NewMachine() *Machine {
	m := &Machine{
		outcome:  NotStarted,
		signal:   make(chan Outcome),
		stateMap: make([][]bool, NumOutcomes),
	}

	for i := range m.stateMap {
		m.stateMap[i] = make([]bool, NumOutcomes)
	}

	m.addStateTransition(NotStarted, Searching)
	m.addStateTransition(Searching, Found, Exhausted, TimedOut)

	return m
}

// Get returns the current outcome.
func (m *Machine) Get() Outcome {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.outcome
}

// Update moves to next if the transition is valid from the current outcome
// and wakes any goroutine waiting on the change. Returns false and an error
// explaining why if the update cannot be done.
func (m *Machine) Update(next Outcome) (bool, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if next >= NumOutcomes || !m.stateMap[m.outcome][next] {
		return false, errors.Errorf("not a valid state change from "+
			"%s to %s", m.outcome, next)
	}

	m.outcome = next

	// notify threads waiting for state update until there are none left
	for signal := true; signal; {
		select {
		case m.signal <- m.outcome:
		default:
			signal = false
		}
	}

	return true, nil
}

// WaitFor returns once the machine is in one of the expected outcomes. If it
// is not already there it waits for the next update, returning an error if
// that update goes elsewhere, the expected outcomes are unreachable or the
// timeout expires.
func (m *Machine) WaitFor(timeout time.Duration, expected ...Outcome) (Outcome, error) {
	// take the read lock so the state does not change during initial checks
	m.mux.RLock()

	kill := make(chan struct{}, 1)
	done := make(chan error)

	expectedMap := make(map[Outcome]bool, len(expected))
	for _, val := range expected {
		expectedMap[val] = true
	}

	// reserve a spot for the update notification before releasing the lock
	// so no update can be missed
	timer := time.NewTimer(timeout)
	go func() {
		defer timer.Stop()
		select {
		case newState := <-m.signal:
			if !expectedMap[newState] {
				done <- errors.Errorf("State not updated to the "+
					"correct state: expected: %s receive: %s", expected,
					newState)
			} else {
				done <- nil
			}
		case <-timer.C:
			done <- errors.Errorf("Timer of %s timed out before "+
				"state update", timeout)
		case <-kill:
		}
	}()

	current := m.outcome

	if expectedMap[current] {
		kill <- struct{}{}
		m.mux.RUnlock()
		return current, nil
	}

	validTransition := false
	for _, next := range expected {
		if next < NumOutcomes && m.stateMap[current][next] {
			validTransition = true
		}
	}

	if !validTransition {
		kill <- struct{}{}
		m.mux.RUnlock()
		return current, errors.Errorf("Cannot wait for state %s which "+
			"cannot be reached from the current state %s", expected, current)
	}

	m.mux.RUnlock()

	err := <-done

	return m.Get(), err
}

// adds a state transition to the state map
func (m *Machine) addStateTransition(from Outcome, to ...Outcome) {
	for _, t := range to {
		m.stateMap[from][t] = true
	}
}

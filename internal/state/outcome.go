////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package state

import (
	"fmt"
)

// Outcome is the state of a search, both per worker and for the whole run.
type Outcome uint32

const (
	NotStarted = Outcome(iota)
	Searching
	Found
	Exhausted
	TimedOut
	NumOutcomes
)

// Stringer to get the name of the outcome, primarily for error prints
func (o Outcome) String() string {
	switch o {
	case NotStarted:
		return "NOT_STARTED"
	case Searching:
		return "SEARCHING"
	case Found:
		return "FOUND"
	case Exhausted:
		return "EXHAUSTED"
	case TimedOut:
		return "TIMED_OUT"
	default:
		return fmt.Sprintf("UNKNOWN OUTCOME: %d", o)
	}
}

// Terminal reports whether no transition leaves the outcome.
func (o Outcome) Terminal() bool {
	return o == Found || o == Exhausted || o == TimedOut
}

// Resolve picks the run outcome from the reduced flags. A found key wins
// over an expired deadline, which wins over exhaustion.
func Resolve(found, timedOut bool) Outcome {
	switch {
	case found:
		return Found
	case timedOut:
		return TimedOut
	default:
		return Exhausted
	}
}

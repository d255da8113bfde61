////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package search

import (
	"time"

	"gitlab.com/elixxir/keysearch/internal/measure"
	"gitlab.com/elixxir/keysearch/internal/state"
)

// Report is what one worker knows once the search is over. The reduced
// fields are identical on every worker.
type Report struct {
	Rank int

	// reduced over the group
	Outcome       state.Outcome
	Key           uint64
	TotalAttempts uint64
	Elapsed       time.Duration
	Interrupted   bool

	// local to the worker
	Attempts      uint64
	LocalElapsed  time.Duration
	PartitionSize uint64
	// Radius is the radius the worker had reached, radial policy only.
	Radius  uint64
	Metrics measure.WorkerMetrics
}

// Found reports whether the key was found.
func (r *Report) Found() bool {
	return r.Outcome == state.Found
}

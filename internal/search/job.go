////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package search

import (
	"time"

	"gitlab.com/elixxir/keysearch/internal/cryptops"
	"gitlab.com/elixxir/keysearch/internal/partition"
)

// NotFound is the key value reduced by workers that did not find the key.
const NotFound int64 = -1

// Job is broadcast by rank 0 to every worker before the search starts.
type Job struct {
	Ciphertext []byte
	Phrase     string
	Layout     cryptops.Layout

	Policy   partition.Policy
	KeySpace uint64
	Hint     uint64
	Radius   uint64

	// Timeout only applies when TimeoutEnabled is set; a zero timeout then
	// stops the search before the first attempt.
	Timeout        time.Duration
	TimeoutEnabled bool

	// CheckInterval is the number of attempts between polls of the peer
	// notification, the deadline and the context. Zero picks the default for
	// the policy and worker count.
	CheckInterval    uint64
	ProgressInterval time.Duration
}

// DefaultCheckInterval returns how many attempts a worker makes between
// polls. Larger groups poll more often so a found key stops them sooner.
func DefaultCheckInterval(policy partition.Policy, workers int) uint64 {
	if policy == partition.Radial {
		switch {
		case workers >= 8:
			return 3000
		case workers >= 4:
			return 5000
		default:
			return 10000
		}
	}

	switch {
	case workers >= 8:
		return 5000
	case workers >= 4:
		return 10000
	default:
		return 20000
	}
}

func (j *Job) bounds(rank, workers int) partition.Bounds {
	return partition.Bounds{
		Size:    j.KeySpace,
		ID:      uint32(rank),
		Workers: uint32(workers),
		Hint:    j.Hint,
		Radius:  j.Radius,
	}
}

func (j *Job) checkInterval(workers int) uint64 {
	if j.CheckInterval > 0 {
		return j.CheckInterval
	}
	return DefaultCheckInterval(j.Policy, workers)
}

func (j *Job) expired(elapsed time.Duration) bool {
	return j.TimeoutEnabled && elapsed >= j.Timeout
}

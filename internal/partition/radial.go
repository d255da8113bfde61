////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package partition

import (
	"github.com/cznic/mathutil"
)

// radialPartition walks outwards from a hint. Worker id owns the radii
// id, id+N, id+2N, ... up to the search radius; each radius yields hint-r and
// then hint+r, skipping keys outside [0, size).
type radialPartition struct {
	hint    uint64
	radius  uint64
	size    uint64
	stride  uint64
	current uint64
	// side is 0 before hint-r has been considered, 1 before hint+r
	side    int
	done    bool
	length  uint64
	emitted uint64
}

func newRadial(b Bounds) *radialPartition {
	r := &radialPartition{
		hint:    b.Hint,
		radius:  b.Radius,
		size:    b.Size,
		stride:  uint64(b.Workers),
		current: uint64(b.ID),
	}
	r.done = r.current > r.radius

	// hint-r exists for r <= hint, hint+r for 0 < r < size-hint
	below := countCongruent(0, mathutil.MinUint64(r.radius, r.hint), uint64(b.ID), r.stride)
	above := countCongruent(1, mathutil.MinUint64(r.radius, r.size-1-r.hint), uint64(b.ID), r.stride)
	r.length = below + above
	return r
}

func (r *radialPartition) Next() (uint64, bool) {
	for !r.done {
		radius := r.current
		if r.side == 0 {
			r.side = 1
			if radius <= r.hint {
				r.emitted++
				return r.hint - radius, true
			}
			continue
		}

		r.advance()
		if radius > 0 && radius < r.size-r.hint {
			r.emitted++
			return r.hint + radius, true
		}
	}
	return 0, false
}

// advance moves to this worker's next radius.
func (r *radialPartition) advance() {
	r.side = 0
	if r.radius-r.current < r.stride {
		r.done = true
		return
	}
	r.current += r.stride
}

func (r *radialPartition) Len() uint64     { return r.length }
func (r *radialPartition) Emitted() uint64 { return r.emitted }
func (r *radialPartition) Progress() float64 {
	return fraction(r.emitted, r.length)
}
func (r *radialPartition) Policy() Policy { return Radial }

// Radius returns the radius currently being walked.
func (r *radialPartition) Radius() uint64 { return r.current }

// RadiusReporter is implemented by partitions that walk outwards from a hint.
type RadiusReporter interface {
	Radius() uint64
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package partition

import (
	"fmt"
	"math/bits"
)

// Range is a half open interval of keys [begin, end).
type Range struct {
	begin uint64
	end   uint64
}

func NewRange(begin, end uint64) Range {
	return Range{begin, end}
}

func (r Range) Begin() uint64 {
	return r.begin
}

func (r Range) End() uint64 {
	return r.end
}

func (r Range) Len() uint64 {
	if r.end < r.begin {
		return 0
	}
	return r.end - r.begin
}

func (r Range) Contains(key uint64) bool {
	return key >= r.begin && key < r.end
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.begin, r.end)
}

// Share returns worker id's slice of [0, size) split between workers:
// [⌊size·id/workers⌋, ⌊size·(id+1)/workers⌋). The last worker always ends at
// size.
func Share(size uint64, id, workers uint32) Range {
	end := size
	if id+1 < workers {
		end = scale(size, uint64(id+1), uint64(workers))
	}
	return Range{scale(size, uint64(id), uint64(workers)), end}
}

// scale computes ⌊size·num/den⌋ without overflowing for num < den.
func scale(size, num, den uint64) uint64 {
	hi, lo := bits.Mul64(size, num)
	q, _ := bits.Div64(hi, lo, den)
	return q
}

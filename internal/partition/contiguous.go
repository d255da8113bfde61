////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package partition

// contiguous.go contains the contiguous and strided policies

// contiguousPartition walks its Range in increasing order.
type contiguousPartition struct {
	rng  Range
	next uint64
}

func newContiguous(b Bounds) *contiguousPartition {
	rng := Share(b.Size, b.ID, b.Workers)
	return &contiguousPartition{rng: rng, next: rng.Begin()}
}

func (c *contiguousPartition) Next() (uint64, bool) {
	if c.next >= c.rng.End() {
		return 0, false
	}
	key := c.next
	c.next++
	return key, true
}

func (c *contiguousPartition) Len() uint64     { return c.rng.Len() }
func (c *contiguousPartition) Emitted() uint64 { return c.next - c.rng.Begin() }
func (c *contiguousPartition) Progress() float64 {
	return fraction(c.Emitted(), c.Len())
}
func (c *contiguousPartition) Policy() Policy { return Contiguous }

// Range returns the keys owned by the partition.
func (c *contiguousPartition) Range() Range { return c.rng }

// stridedPartition yields id, id+N, id+2N, ... below size.
type stridedPartition struct {
	size    uint64
	stride  uint64
	next    uint64
	length  uint64
	emitted uint64
	done    bool
}

func newStrided(b Bounds) *stridedPartition {
	s := &stridedPartition{
		size:   b.Size,
		stride: uint64(b.Workers),
		next:   uint64(b.ID),
	}
	s.length = countCongruent(0, b.Size-1, uint64(b.ID), s.stride)
	s.done = s.next >= s.size
	return s
}

func (s *stridedPartition) Next() (uint64, bool) {
	if s.done {
		return 0, false
	}
	key := s.next
	s.emitted++
	// stop before next+stride can wrap around
	if s.size-key <= s.stride {
		s.done = true
	} else {
		s.next += s.stride
	}
	return key, true
}

func (s *stridedPartition) Len() uint64     { return s.length }
func (s *stridedPartition) Emitted() uint64 { return s.emitted }
func (s *stridedPartition) Progress() float64 {
	return fraction(s.emitted, s.length)
}
func (s *stridedPartition) Policy() Policy { return Strided }

// countCongruent counts the r in [lo, hi] with r%n == rem.
func countCongruent(lo, hi, rem, n uint64) uint64 {
	if lo > hi {
		return 0
	}
	first := lo - lo%n + rem
	if first < lo {
		first += n
	}
	if first > hi {
		return 0
	}
	return (hi-first)/n + 1
}

func fraction(done, total uint64) float64 {
	if total == 0 {
		return 1
	}
	return float64(done) / float64(total)
}

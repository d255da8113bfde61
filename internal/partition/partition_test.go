////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package partition

import (
	"testing"

	"github.com/pkg/errors"
)

// drain collects every key of every worker's partition and fails on keys
// yielded twice.
func drain(t *testing.T, policy Policy, b Bounds) map[uint64]uint32 {
	seen := make(map[uint64]uint32)
	for id := uint32(0); id < b.Workers; id++ {
		b.ID = id
		p, err := New(policy, b)
		if err != nil {
			t.Fatalf("New(%s, %+v) returned an error: %+v", policy, b, err)
		}

		count := uint64(0)
		for key, ok := p.Next(); ok; key, ok = p.Next() {
			if owner, dup := seen[key]; dup {
				t.Fatalf("Key %d yielded by worker %d and worker %d", key, owner, id)
			}
			seen[key] = id
			count++
		}

		if count != p.Len() {
			t.Errorf("Worker %d of %d (%s) yielded %d keys, Len reported %d",
				id, b.Workers, policy, count, p.Len())
		}
		if p.Emitted() != count {
			t.Errorf("Emitted() = %d, expected %d", p.Emitted(), count)
		}
		if p.Progress() != 1 {
			t.Errorf("Progress() of a drained partition = %v", p.Progress())
		}
		if _, ok := p.Next(); ok {
			t.Errorf("Next() returned a key after exhaustion")
		}
	}
	return seen
}

// Tests that contiguous and strided partitions cover [0, size) exactly once,
// including sizes not divisible by the worker count.
func TestPartition_CoversKeySpace(t *testing.T) {
	sizes := []uint64{1, 2, 7, 100, 101, 1 << 10, 1021}
	workers := []uint32{1, 2, 3, 4, 7, 8}

	for _, policy := range []Policy{Contiguous, Strided} {
		for _, size := range sizes {
			for _, n := range workers {
				seen := drain(t, policy, Bounds{Size: size, Workers: n})
				if uint64(len(seen)) != size {
					t.Errorf("%s size %d workers %d covered %d keys",
						policy, size, n, len(seen))
				}
				for key := range seen {
					if key >= size {
						t.Errorf("%s yielded key %d outside [0, %d)", policy, key, size)
					}
				}
			}
		}
	}
}

// Tests the contiguous boundaries, with the last worker absorbing the
// remainder.
func TestShare(t *testing.T) {
	tests := []struct {
		size   uint64
		id, n  uint32
		expect Range
	}{
		{10, 0, 3, NewRange(0, 3)},
		{10, 1, 3, NewRange(3, 6)},
		{10, 2, 3, NewRange(6, 10)},
		{1 << 56, 0, 4, NewRange(0, 1<<54)},
		{1 << 56, 3, 4, NewRange(3<<54, 1<<56)},
		{1 << 56, 999, 1000, NewRange(((1<<56)/1000)*999+(((1<<56)%1000)*999)/1000, 1<<56)},
	}

	for _, tt := range tests {
		got := Share(tt.size, tt.id, tt.n)
		if got != tt.expect {
			t.Errorf("Share(%d, %d, %d) = %s, expected %s",
				tt.size, tt.id, tt.n, got, tt.expect)
		}
	}
}

// Tests that Share does not overflow for large worker ids.
func TestShare_Monotonic(t *testing.T) {
	const n = 1000
	prev := uint64(0)
	for id := uint32(0); id < n; id++ {
		r := Share(1<<56, id, n)
		if r.Begin() != prev {
			t.Fatalf("Gap before worker %d: previous end %d, begin %d", id, prev, r.Begin())
		}
		prev = r.End()
	}
	if prev != 1<<56 {
		t.Errorf("Last range ends at %d, expected %d", prev, uint64(1<<56))
	}
}

// Tests that the radial partitions yield exactly the window around the hint
// clipped to the key space.
func TestRadial_CoversWindow(t *testing.T) {
	tests := []struct {
		size, hint, radius uint64
	}{
		{1000, 500, 0},
		{1000, 500, 10},
		{1000, 3, 10},
		{1000, 995, 10},
		{20, 10, 100},
		{1 << 56, 120000, 1000},
		{1 << 56, (1 << 56) - 1, 17},
	}

	for _, tt := range tests {
		for _, n := range []uint32{1, 2, 3, 4, 8} {
			seen := drain(t, Radial, Bounds{
				Size: tt.size, Workers: n, Hint: tt.hint, Radius: tt.radius})

			expected := 0
			for d := -int64(tt.radius); d <= int64(tt.radius); d++ {
				key := int64(tt.hint) + d
				if key < 0 || uint64(key) >= tt.size {
					continue
				}
				expected++
				if _, ok := seen[uint64(key)]; !ok {
					t.Errorf("Key %d missing for %+v workers %d", key, tt, n)
				}
			}
			if len(seen) != expected {
				t.Errorf("Radial %+v with %d workers yielded %d keys, expected %d",
					tt, n, len(seen), expected)
			}
		}
	}
}

// Tests that radius zero yields the hint only.
func TestRadial_ZeroRadius(t *testing.T) {
	seen := drain(t, Radial, Bounds{Size: 100, Workers: 4, Hint: 42})
	if len(seen) != 1 {
		t.Fatalf("Expected one key, received %d", len(seen))
	}
	if owner, ok := seen[42]; !ok || owner != 0 {
		t.Errorf("Expected worker 0 to yield the hint, received %v", seen)
	}
}

// Tests the radial ordering: increasing radius, hint-r before hint+r,
// interleaved by radius mod N.
func TestRadial_Order(t *testing.T) {
	p, err := New(Radial, Bounds{Size: 1000, ID: 1, Workers: 3, Hint: 100, Radius: 7})
	if err != nil {
		t.Fatalf("New returned an error: %+v", err)
	}

	expected := []uint64{99, 101, 96, 104, 93, 107}
	// the radius moves on as soon as hint+r has been handed out
	radii := []uint64{1, 4, 4, 7, 7, 7}
	for i, want := range expected {
		key, ok := p.Next()
		if !ok || key != want {
			t.Fatalf("Key %d: expected %d, received %d (%v)", i, want, key, ok)
		}
		if r := p.(RadiusReporter).Radius(); r != radii[i] {
			t.Errorf("Radius after key %d: expected %d, received %d", i, radii[i], r)
		}
	}
	if _, ok := p.Next(); ok {
		t.Errorf("Expected the partition to be exhausted")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		policy Policy
		b      Bounds
	}{
		{Contiguous, Bounds{Size: 10}},
		{Contiguous, Bounds{Size: 10, ID: 2, Workers: 2}},
		{Contiguous, Bounds{Size: 0, Workers: 1}},
		{Radial, Bounds{Size: 10, Workers: 1, Hint: 10}},
		{NumPolicies, Bounds{Size: 10, Workers: 1}},
	}

	for _, tt := range tests {
		_, err := New(tt.policy, tt.b)
		if errors.Cause(err) != ErrInvalid {
			t.Errorf("New(%s, %+v): expected ErrInvalid, received %v", tt.policy, tt.b, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for p := Policy(0); p < NumPolicies; p++ {
		parsed, err := ParsePolicy(p.String())
		if err != nil || parsed != p {
			t.Errorf("ParsePolicy(%q) = %v, %v", p.String(), parsed, err)
		}
	}
	if _, err := ParsePolicy("random"); errors.Cause(err) != ErrInvalid {
		t.Errorf("Expected ErrInvalid for an unknown policy, received %v", err)
	}
}

func TestRange(t *testing.T) {
	r := NewRange(5, 9)
	if r.Begin() != 5 || r.End() != 9 || r.Len() != 4 {
		t.Errorf("Unexpected range accessors: %d %d %d", r.Begin(), r.End(), r.Len())
	}
	if !r.Contains(5) || r.Contains(9) || r.Contains(4) {
		t.Errorf("Contains does not honour the half open interval")
	}
	if NewRange(9, 5).Len() != 0 {
		t.Errorf("An inverted range should be empty")
	}
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package partition splits the key space between workers. Every Partition is
// a lazy, finite generator owned by a single worker; the union over all
// workers of one policy never yields a key twice.
package partition

import (
	"github.com/pkg/errors"
)

// ErrInvalid is wrapped by every argument error returned from New.
var ErrInvalid = errors.New("invalid partition parameters")

// Policy names a way of assigning keys to workers.
type Policy uint8

const (
	// Contiguous gives every worker one block of consecutive keys.
	Contiguous Policy = iota
	// Radial walks outwards from a hint, radii interleaved across workers.
	Radial
	// Strided gives worker i the keys i, i+N, i+2N, ...
	Strided
	NumPolicies
)

func (p Policy) String() string {
	switch p {
	case Contiguous:
		return "contiguous"
	case Radial:
		return "radial"
	case Strided:
		return "strided"
	default:
		return "unknown"
	}
}

// ParsePolicy returns the Policy with the given name.
func ParsePolicy(name string) (Policy, error) {
	for p := Policy(0); p < NumPolicies; p++ {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, errors.WithMessagef(ErrInvalid, "unknown policy %q", name)
}

// Bounds holds everything needed to build one worker's partition.
type Bounds struct {
	// Size is the exclusive upper bound of the key space.
	Size uint64
	// ID is the worker index in [0, Workers).
	ID      uint32
	Workers uint32

	// Hint and Radius are only used by the radial policy.
	Hint   uint64
	Radius uint64
}

// Partition is the sequence of candidate keys assigned to one worker.
type Partition interface {
	// Next returns the next candidate, or false once the partition is
	// exhausted.
	Next() (uint64, bool)
	// Len is the number of candidates the partition yields in total.
	Len() uint64
	// Emitted is the number of candidates returned by Next so far.
	Emitted() uint64
	// Progress is Emitted over Len, in [0, 1].
	Progress() float64
	// Policy returns the policy that produced the partition.
	Policy() Policy
}

// New builds the partition for one worker.
func New(policy Policy, b Bounds) (Partition, error) {
	if b.Workers == 0 {
		return nil, errors.WithMessage(ErrInvalid, "worker count must be positive")
	}
	if b.ID >= b.Workers {
		return nil, errors.WithMessagef(ErrInvalid,
			"worker id %d out of range for %d workers", b.ID, b.Workers)
	}
	if b.Size == 0 {
		return nil, errors.WithMessage(ErrInvalid, "key space is empty")
	}

	switch policy {
	case Contiguous:
		return newContiguous(b), nil
	case Strided:
		return newStrided(b), nil
	case Radial:
		if b.Hint >= b.Size {
			return nil, errors.WithMessagef(ErrInvalid,
				"hint %d outside key space of %d keys", b.Hint, b.Size)
		}
		return newRadial(b), nil
	default:
		return nil, errors.WithMessagef(ErrInvalid, "unknown policy %d", policy)
	}
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cryptops wraps the DES block primitive used by the key search. It
// owns the mapping from integer keys to parity-adjusted 8 byte key blocks and
// the whole-buffer ECB helpers used by the coordinator.
package cryptops

import (
	"crypto/cipher"
	"crypto/des"
	"math/bits"

	"github.com/pkg/errors"
)

// BlockSize is the DES block size in bytes.
const BlockSize = des.BlockSize

// MaxKeyBits is the widest integer key the search supports.
const MaxKeyBits = 56

// KeyLimit is the exclusive upper bound of the full key space.
const KeyLimit = uint64(1) << MaxKeyBits

var (
	// ErrKeyRange is returned for keys that do not fit in MaxKeyBits.
	ErrKeyRange = errors.New("key does not fit in 56 bits")
	// ErrBlockAlignment is returned for buffers that are not a multiple of
	// BlockSize.
	ErrBlockAlignment = errors.New("buffer length is not a multiple of the block size")
)

// Layout selects how an integer key is laid out in the 8 byte key block.
type Layout uint8

const (
	// Spread places 7 key bits in the high bits of each byte, lowest order
	// byte first, leaving bit 0 for parity. Every key in [0, 2^56) maps to a
	// distinct DES key.
	Spread Layout = iota
	// Packed copies the little endian integer into the block and then
	// overwrites bit 0 of every byte with parity. Keys that differ only in
	// those bits produce the same schedule.
	Packed
	NumLayouts
)

func (l Layout) String() string {
	switch l {
	case Spread:
		return "spread"
	case Packed:
		return "packed"
	default:
		return "unknown"
	}
}

// ParseLayout returns the Layout with the given name.
func ParseLayout(name string) (Layout, error) {
	for l := Layout(0); l < NumLayouts; l++ {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, errors.Errorf("unknown key layout %q", name)
}

// KeyBlock builds the odd parity key block for an integer key.
func KeyBlock(key uint64, layout Layout) ([BlockSize]byte, error) {
	var kb [BlockSize]byte
	if key >= KeyLimit {
		return kb, errors.WithMessagef(ErrKeyRange, "key %d", key)
	}

	switch layout {
	case Spread:
		for i := 0; i < BlockSize; i++ {
			kb[i] = byte((key>>(7*uint(i)))&0x7F) << 1
		}
	case Packed:
		for i := 0; i < BlockSize; i++ {
			kb[i] = byte(key >> (8 * uint(i)))
		}
	default:
		return kb, errors.Errorf("unknown key layout %d", layout)
	}

	setOddParity(&kb)
	return kb, nil
}

// setOddParity rewrites bit 0 of each byte so every byte has an odd number
// of set bits.
func setOddParity(kb *[BlockSize]byte) {
	for i, b := range kb {
		b &= 0xFE
		if bits.OnesCount8(b)%2 == 0 {
			b |= 1
		}
		kb[i] = b
	}
}

// NewSchedule derives the key schedule for an integer key. The returned block
// can be reused for every block encrypted or decrypted under that key.
func NewSchedule(key uint64, layout Layout) (cipher.Block, error) {
	kb, err := KeyBlock(key, layout)
	if err != nil {
		return nil, err
	}
	return des.NewCipher(kb[:])
}

// Encrypt encrypts buf in place block by block under key.
func Encrypt(key uint64, layout Layout, buf []byte) error {
	sched, err := scheduleFor(key, layout, buf)
	if err != nil {
		return err
	}
	for i := 0; i < len(buf); i += BlockSize {
		sched.Encrypt(buf[i:i+BlockSize], buf[i:i+BlockSize])
	}
	return nil
}

// Decrypt decrypts buf in place block by block under key.
func Decrypt(key uint64, layout Layout, buf []byte) error {
	sched, err := scheduleFor(key, layout, buf)
	if err != nil {
		return err
	}
	for i := 0; i < len(buf); i += BlockSize {
		sched.Decrypt(buf[i:i+BlockSize], buf[i:i+BlockSize])
	}
	return nil
}

func scheduleFor(key uint64, layout Layout, buf []byte) (cipher.Block, error) {
	if len(buf)%BlockSize != 0 {
		return nil, errors.WithMessagef(ErrBlockAlignment, "length %d", len(buf))
	}
	return NewSchedule(key, layout)
}

// Pad returns a copy of data extended with zero bytes to a multiple of
// BlockSize. An empty input stays empty.
func Pad(data []byte) []byte {
	n := len(data)
	if rem := n % BlockSize; rem != 0 {
		n += BlockSize - rem
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

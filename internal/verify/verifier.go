////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package verify decides whether a candidate key decrypts the ciphertext to a
// plaintext containing the search phrase.
package verify

import (
	"bytes"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/keysearch/internal/cryptops"
)

var (
	// ErrEmptyPhrase is returned when no search phrase is given.
	ErrEmptyPhrase = errors.New("search phrase must not be empty")
	// ErrBlockAlignment is returned for an empty ciphertext or one whose
	// length is not a multiple of the block size.
	ErrBlockAlignment = errors.New("ciphertext must be a non-empty multiple of the block size")
)

// Verifier tests candidate keys against one ciphertext. The ciphertext is
// only read; decryption happens in a scratch buffer owned by the Verifier, so
// a Verifier must not be shared between goroutines. Each worker builds its
// own.
type Verifier struct {
	ciphertext []byte
	phrase     []byte
	layout     cryptops.Layout

	first   [cryptops.BlockSize]byte
	scratch []byte
}

// NewVerifier validates the inputs and allocates the scratch buffer.
func NewVerifier(ciphertext []byte, phrase string, layout cryptops.Layout) (*Verifier, error) {
	if phrase == "" {
		return nil, ErrEmptyPhrase
	}
	if len(ciphertext) == 0 || len(ciphertext)%cryptops.BlockSize != 0 {
		return nil, errors.WithMessagef(ErrBlockAlignment,
			"received %d bytes", len(ciphertext))
	}
	if layout >= cryptops.NumLayouts {
		return nil, errors.Errorf("unknown key layout %d", layout)
	}

	return &Verifier{
		ciphertext: ciphertext,
		phrase:     []byte(phrase),
		layout:     layout,
		scratch:    make([]byte, len(ciphertext)),
	}, nil
}

// TryKey reports whether key decrypts the ciphertext to text containing the
// phrase. Most wrong keys are rejected after decrypting the first block.
func (v *Verifier) TryKey(key uint64) bool {
	sched, err := cryptops.NewSchedule(key, v.layout)
	if err != nil {
		jww.DEBUG.Printf("Skipping key %d: %s", key, err)
		return false
	}

	sched.Decrypt(v.first[:], v.ciphertext[:cryptops.BlockSize])
	if !IsLikelyText(v.first[:]) {
		return false
	}

	copy(v.scratch, v.first[:])
	for i := cryptops.BlockSize; i < len(v.ciphertext); i += cryptops.BlockSize {
		sched.Decrypt(v.scratch[i:i+cryptops.BlockSize],
			v.ciphertext[i:i+cryptops.BlockSize])
	}

	return bytes.Contains(Terminate(v.scratch), v.phrase)
}

// Plaintext decrypts the whole ciphertext under key into a new buffer,
// truncated at the first NUL byte.
func (v *Verifier) Plaintext(key uint64) ([]byte, error) {
	out := make([]byte, len(v.ciphertext))
	copy(out, v.ciphertext)
	if err := cryptops.Decrypt(key, v.layout, out); err != nil {
		return nil, err
	}
	return Terminate(out), nil
}

// Terminate cuts text at its first NUL byte, matching how the decrypted text
// is read as a C string.
func Terminate(text []byte) []byte {
	if i := bytes.IndexByte(text, 0); i >= 0 {
		return text[:i]
	}
	return text
}

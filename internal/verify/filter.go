////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package verify

// filter.go contains the quick reject heuristic run on the first decrypted
// block of every candidate

// MaxSample is the most bytes IsLikelyText inspects.
const MaxSample = 32

// printableThreshold is the percentage of printable bytes a sample has to
// exceed.
const printableThreshold = 90

// IsLikelyText reports whether more than 90% of the first MaxSample bytes of
// block are printable ASCII or common whitespace. The percentage uses integer
// division, so a sample that is exactly 90% printable is rejected.
func IsLikelyText(block []byte) bool {
	n := len(block)
	if n > MaxSample {
		n = MaxSample
	}
	if n == 0 {
		return false
	}

	printable := 0
	for _, b := range block[:n] {
		if isPrintable(b) {
			printable++
		}
	}

	return printable*100/n > printableThreshold
}

func isPrintable(b byte) bool {
	return (b >= 0x20 && b <= 0x7E) || b == '\n' || b == '\r' || b == '\t'
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package coordinator

import (
	"fmt"
	"io"
	"time"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/keysearch/cmd/conf"
	"gitlab.com/elixxir/keysearch/internal/cryptops"
	"gitlab.com/elixxir/keysearch/internal/measure"
	"gitlab.com/elixxir/keysearch/internal/partition"
	"gitlab.com/elixxir/keysearch/internal/search"
	"gitlab.com/elixxir/keysearch/internal/state"
	"gitlab.com/elixxir/keysearch/internal/verify"
)

// Summary is the result of one search.
type Summary struct {
	RunID     string
	Label     string
	StartedAt time.Time

	Workers  int
	Policy   partition.Policy
	Layout   cryptops.Layout
	KeySpace uint64
	Phrase   string
	// Digest is the hex blake2b-256 digest of the ciphertext.
	Digest string

	Outcome     state.Outcome
	Interrupted bool
	// Key and Plaintext are only set when the key was found.
	Key       uint64
	Plaintext string

	// RealKey is the key the input was encrypted with, when known. It is
	// only used to check the result.
	RealKey    uint64
	RealKeySet bool
	KeyMatches bool

	Attempts       uint64
	WorkerAttempts []uint64
	Elapsed        time.Duration
	Rate           float64

	Radial      *RadialStats
	Warnings    []string
	Suggestions []string
}

// RadialStats describes how much of the neighbourhood of the hint was
// searched.
type RadialStats struct {
	Hint   uint64 `yaml:"hint"`
	Radius uint64 `yaml:"radius"`
	// Reached is the radius the search got to.
	Reached         uint64  `yaml:"reached"`
	PercentExplored float64 `yaml:"percentExplored"`
	// WindowKeys is the number of keys within the radius inside the key
	// space, and Reduction the share of the key space they leave out.
	WindowKeys uint64  `yaml:"windowKeys"`
	Reduction  float64 `yaml:"reduction"`
	// Distance from the hint to the real key, when known.
	Distance      uint64 `yaml:"distance,omitempty"`
	DistanceKnown bool   `yaml:"distanceKnown"`
	InRange       bool   `yaml:"inRange"`
}

// Found reports whether the search found a key.
func (s *Summary) Found() bool {
	return s.Outcome == state.Found
}

func (s *Summary) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	jww.WARN.Print(msg)
	s.Warnings = append(s.Warnings, msg)
}

// collect fills the results from the worker reports.
func (s *Summary) collect(reports []*search.Report, ciphertext []byte, p *conf.Search) error {
	if len(reports) == 0 || reports[0] == nil {
		return errors.New("no worker reported")
	}
	root := reports[search.Root]

	s.Outcome = root.Outcome
	s.Interrupted = root.Interrupted
	s.Attempts = root.TotalAttempts
	s.Elapsed = root.Elapsed
	s.Rate = measure.EstimateRate(s.Attempts, 1, s.Elapsed)

	s.WorkerAttempts = make([]uint64, len(reports))
	var reached uint64
	var windowKeys uint64
	for _, r := range reports {
		s.WorkerAttempts[r.Rank] = r.Attempts
		reached = mathutil.MaxUint64(reached, r.Radius)
		windowKeys += r.PartitionSize
	}

	if s.Found() {
		s.Key = root.Key
		buf := append([]byte(nil), ciphertext...)
		if err := cryptops.Decrypt(s.Key, s.Layout, buf); err != nil {
			return errors.WithMessagef(err, "failed to decrypt under found key %d", s.Key)
		}
		s.Plaintext = string(verify.Terminate(buf))

		if s.RealKeySet {
			s.KeyMatches = equivalent(s.Key, s.RealKey, s.Layout)
			if !s.KeyMatches {
				s.warn("found key %d is not the real key %d", s.Key, s.RealKey)
			}
		}
	}

	if s.Policy == partition.Radial {
		s.Radial = s.radialStats(p, reached, windowKeys)
	}
	s.suggest()
	return nil
}

func (s *Summary) radialStats(p *conf.Search, reached, windowKeys uint64) *RadialStats {
	rs := &RadialStats{
		Hint:       p.Hint,
		Radius:     p.Radius,
		WindowKeys: windowKeys,
	}

	switch s.Outcome {
	case state.Found:
		rs.Reached = distance(s.Key, p.Hint)
	case state.Exhausted:
		if !s.Interrupted {
			rs.Reached = p.Radius
			break
		}
		fallthrough
	default:
		// workers report the next radius they would have tried
		rs.Reached = mathutil.MinUint64(reached, p.Radius)
	}

	rs.PercentExplored = 100
	if p.Radius > 0 {
		rs.PercentExplored = float64(rs.Reached) * 100 / float64(p.Radius)
	}
	rs.Reduction = 100 * (1 - float64(windowKeys)/float64(s.KeySpace))

	if s.RealKeySet {
		rs.DistanceKnown = true
		rs.Distance = distance(s.RealKey, p.Hint)
		rs.InRange = rs.Distance <= p.Radius
	}
	return rs
}

// suggest explains how a search that did not find the key could.
func (s *Summary) suggest() {
	if s.Found() || s.Interrupted {
		return
	}

	switch {
	case s.Outcome == state.TimedOut:
		s.Suggestions = append(s.Suggestions,
			"increase the timeout with --timeout or add workers with --workers")
	case s.Radial != nil && s.Radial.DistanceKnown && !s.Radial.InRange:
		s.Suggestions = append(s.Suggestions, fmt.Sprintf(
			"increase the search radius with --radius to at least %d",
			s.Radial.Distance))
	case s.Radial != nil:
		s.Suggestions = append(s.Suggestions,
			"increase the search radius with --radius or move the --hint")
	case s.RealKeySet && s.RealKey >= s.KeySpace:
		s.Suggestions = append(s.Suggestions,
			"widen the key space with --bits or --maxKey")
	default:
		s.Suggestions = append(s.Suggestions,
			"check the search phrase and the key layout")
	}
}

// equivalent reports whether two keys give the same DES key block.
func equivalent(a, b uint64, layout cryptops.Layout) bool {
	if a == b {
		return true
	}
	ka, errA := cryptops.KeyBlock(a, layout)
	kb, errB := cryptops.KeyBlock(b, layout)
	return errA == nil && errB == nil && ka == kb
}

func (s *Summary) log() {
	jww.INFO.Printf("Run %s: %s after %d attempts in %s", s.RunID,
		s.Outcome, s.Attempts, s.Elapsed)
	if s.Found() {
		jww.INFO.Printf("Run %s: key %d", s.RunID, s.Key)
	}
}

// Print writes the summary for a person to read.
func (s *Summary) Print(w io.Writer) {
	pf := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	pf("Run:        %s\n", s.RunID)
	if s.Label != "" {
		pf("Test:       %s\n", s.Label)
	}
	pf("Outcome:    %s\n", s.Outcome)
	if s.Interrupted {
		pf("            interrupted before completion\n")
	}
	pf("Workers:    %d (%s, %s key layout)\n", s.Workers, s.Policy, s.Layout)
	pf("Key space:  %d keys\n", s.KeySpace)
	pf("Phrase:     %q\n", s.Phrase)
	pf("Digest:     %s\n", s.Digest)

	if s.Found() {
		pf("Key:        %d\n", s.Key)
		if s.RealKeySet {
			pf("Real key:   %d (match: %v)\n", s.RealKey, s.KeyMatches)
		}
		pf("Plaintext:  %q\n", s.Plaintext)
	}

	pf("Attempts:   %d\n", s.Attempts)
	for rank, a := range s.WorkerAttempts {
		pf("  worker %-3d %d\n", rank, a)
	}
	pf("Elapsed:    %s\n", s.Elapsed.Round(time.Millisecond))
	pf("Rate:       %s\n", measure.FormatRate(s.Rate))

	if rs := s.Radial; rs != nil {
		pf("Hint:       %d, radius %d\n", rs.Hint, rs.Radius)
		pf("Explored:   radius %d (%.2f%%)\n", rs.Reached, rs.PercentExplored)
		pf("Window:     %d keys, %.6f%% of the key space left out\n",
			rs.WindowKeys, rs.Reduction)
		if rs.DistanceKnown {
			pf("Distance:   %d from the hint (in range: %v)\n", rs.Distance,
				rs.InRange)
		}
	}

	for _, msg := range s.Warnings {
		pf("Warning:    %s\n", msg)
	}
	for _, msg := range s.Suggestions {
		pf("Suggestion: %s\n", msg)
	}
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package measure

import (
	"fmt"
	"strings"
	"time"

	jww "github.com/spf13/jwalterweatherman"
)

// Progress is a point in time view of one worker's search. It is advisory.
type Progress struct {
	Rank     int
	Attempts uint64
	Elapsed  time.Duration
	// EstimatedRate extrapolates the local rate to every worker, in keys per
	// second.
	EstimatedRate float64
	// Percent is the estimated share of the key space searched by every
	// worker, or the share of the search radius reached for radial searches.
	Percent float64
	Radial  bool
	Radius  uint64
}

// EstimateRate extrapolates attempts made locally over elapsed to the whole
// group of workers. It assumes every worker runs at the same rate.
func EstimateRate(attempts uint64, workers int, elapsed time.Duration) float64 {
	if elapsed <= 0 || workers <= 0 {
		return 0
	}
	return float64(attempts) * float64(workers) / elapsed.Seconds()
}

// EstimateCoverage extrapolates attempts made locally to the percentage of
// total keys searched by the whole group, capped at 100.
func EstimateCoverage(attempts uint64, workers int, total uint64) float64 {
	if total == 0 || workers <= 0 {
		return 0
	}
	percent := float64(attempts) * float64(workers) / float64(total) * 100
	if percent > 100 {
		return 100
	}
	return percent
}

// RadiusCoverage is the percentage of radius reached at current.
func RadiusCoverage(current, radius uint64) float64 {
	if radius == 0 || current >= radius {
		return 100
	}
	return float64(current) / float64(radius) * 100
}

// FormatRate prints a keys per second rate with a metric suffix.
func FormatRate(rate float64) string {
	switch {
	case rate >= 1e9:
		return fmt.Sprintf("%.2fG keys/s", rate/1e9)
	case rate >= 1e6:
		return fmt.Sprintf("%.2fM keys/s", rate/1e6)
	case rate >= 1e3:
		return fmt.Sprintf("%.2fK keys/s", rate/1e3)
	default:
		return fmt.Sprintf("%.0f keys/s", rate)
	}
}

func (p Progress) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Worker %d: %d attempts in %s, ~%s (estimated "+
		"over all workers)", p.Rank, p.Attempts,
		p.Elapsed.Round(time.Millisecond), FormatRate(p.EstimatedRate))
	if p.Radial {
		fmt.Fprintf(&b, ", radius %d, %.2f%% of the search radius",
			p.Radius, p.Percent)
	} else {
		fmt.Fprintf(&b, ", ~%.2f%% of the key space (estimated)", p.Percent)
	}
	return b.String()
}

// LogProgress prints p to the info log.
func LogProgress(p Progress) {
	jww.INFO.Print(p.String())
}

// Throttle limits how often progress is emitted.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle builds a Throttle whose first window opens at start.
func NewThrottle(interval time.Duration, start time.Time) *Throttle {
	return &Throttle{interval: interval, last: start}
}

// Ready reports whether at least one interval has passed since the last time
// it returned true, and if so starts a new window at now. A non-positive
// interval is always ready.
func (t *Throttle) Ready(now time.Time) bool {
	if t.interval > 0 && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

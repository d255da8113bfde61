////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package measure records what a search worker did and when: tagged event
// timestamps, attempt counts, a resource snapshot and rate-limited progress.
package measure

// metrics.go contains the metrics object and its methods

import (
	"sync"
	"time"
)

// Metrics holds the list of events recorded by one worker. The RWMutex
// prevents two threads from writing to the list at the same time.
type Metrics struct {
	Events []Metric
	Rank   int
	sync.RWMutex
}

// Metric holds a single measurement, a tag and the time it was taken.
type Metric struct {
	Tag       string
	Timestamp time.Time
}

// Measure appends a Metric with the given tag stamped with the current time
// and returns the timestamp.
func (ms *Metrics) Measure(tag string) time.Time {
	metric := Metric{
		Tag:       tag,
		Timestamp: time.Now(),
	}

	ms.Lock()
	ms.Events = append(ms.Events, metric)
	ms.Unlock()

	return metric.Timestamp
}

// GetEvents returns a copy of the Events array.
func (ms *Metrics) GetEvents() []Metric {
	ms.RLock()
	defer ms.RUnlock()
	metricsEvents := make([]Metric, len(ms.Events))

	copy(metricsEvents, ms.Events)

	return metricsEvents
}

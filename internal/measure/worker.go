////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package measure

// measure/worker.go contains the workerMetrics object, constructors and its
// methods

import (
	"time"
)

// WorkerMetrics holds metrics for the life-cycle of one search worker. It
// includes the tagged events of the worker and a resource snapshot.
type WorkerMetrics struct {
	Rank           int
	NumWorkers     int
	Policy         string
	PartitionSize  uint64
	Attempts       uint64
	Events         []Metric
	ResourceMetric ResourceMetric

	// Special recorded events
	StartTime time.Time
	EndTime   time.Time
}

// NewWorkerMetrics initializes a new WorkerMetrics object for the worker of
// the given rank.
func NewWorkerMetrics(rank, numWorkers int) WorkerMetrics {
	return WorkerMetrics{
		Rank:       rank,
		NumWorkers: numWorkers,
		StartTime:  time.Now().Round(0),
	}
}

// SetEvents copies the events recorded in ms.
func (wm *WorkerMetrics) SetEvents(ms *Metrics) {
	wm.Events = ms.GetEvents()
}

// SetResourceMetrics sets the ResourceMetric for the worker metrics.
func (wm *WorkerMetrics) SetResourceMetrics(resourceMetric ResourceMetric) {
	wm.ResourceMetric = resourceMetric
}

// Stop records the end of the worker's search.
func (wm *WorkerMetrics) Stop(attempts uint64) {
	wm.Attempts = attempts
	wm.EndTime = time.Now().Round(0)
}

// Elapsed returns the time between the start and the stop of the worker, or
// until now if it has not stopped.
func (wm WorkerMetrics) Elapsed() time.Duration {
	if wm.EndTime.IsZero() {
		return time.Since(wm.StartTime)
	}
	return wm.EndTime.Sub(wm.StartTime)
}

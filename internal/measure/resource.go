////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package measure

// measure/resource.go contains the resourceMetric object and the
// resourceMonitor object. These keep track of memory and goroutines while a
// search is running

import (
	"runtime"
	"sync"
	"time"
)

// ResourceMetric stores memory and goroutine usage.
type ResourceMetric struct {
	SystemStartTime time.Time
	Time            time.Time
	MemAllocBytes   uint64
	MemAvailable    uint64
	NumThreads      int
}

// Sample reads the current resource usage of the process.
func Sample(systemStart time.Time) ResourceMetric {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return ResourceMetric{
		SystemStartTime: systemStart,
		Time:            time.Now(),
		MemAllocBytes:   ms.Alloc,
		MemAvailable:    ms.Sys - ms.Alloc,
		NumThreads:      runtime.NumGoroutine(),
	}
}

// ResourceMonitor contains a mutable resource metric.
type ResourceMonitor struct {
	lastMetric ResourceMetric
	sync.RWMutex
}

// Get returns a copy of the last ResourceMetric.
func (rm *ResourceMonitor) Get() ResourceMetric {
	rm.RLock()
	defer rm.RUnlock()

	return rm.lastMetric
}

// Set sets the lastMetric of the ResourceMonitor to a copy of the specified
// ResourceMetric.
func (rm *ResourceMonitor) Set(b ResourceMetric) {
	rm.Lock()
	defer rm.Unlock()

	rm.lastMetric = b
}

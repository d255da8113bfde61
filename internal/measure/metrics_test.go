////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package measure

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

// Tests that Measure() records all the tags in order with their timestamps.
func TestMetrics_Measure(t *testing.T) {
	metrics := new(Metrics)

	testTags := make([]string, 1+rand.Intn(100))
	for i := range testTags {
		testTags[i] = randomString(rand.Intn(100))
	}

	testTimestamps := make([]time.Time, len(testTags))
	for i, value := range testTags {
		testTimestamps[i] = metrics.Measure(value)
	}

	if len(metrics.Events) != len(testTags) {
		t.Errorf("Measure() did not properly record the correct number of "+
			"Metric events\n\texpected: %d\n\treceived: %d",
			len(testTags), len(metrics.Events))
	}

	for i, metric := range metrics.Events {
		if metric.Tag != testTags[i] {
			t.Errorf("Measure() did not properly record the Metric "+
				"tag on index %d\n\texpected: %s\n\treceived: %s",
				i, testTags[i], metric.Tag)
		}

		if !metric.Timestamp.Equal(testTimestamps[i]) {
			t.Errorf("Measure() did not properly record the Metric "+
				"timestamp on index %d\n\texpected: %s\n\treceived: %s",
				i, testTimestamps[i], metric.Timestamp)
		}

		if i > 0 && metric.Timestamp.Before(metrics.Events[i-1].Timestamp) {
			t.Errorf("Metric %d occurred before Metric %d", i, i-1)
		}
	}
}

// Tests that the array returned by GetEvents() is a copy of Metrics.Events.
func TestMetrics_GetEvents_Copy(t *testing.T) {
	metrics := new(Metrics)
	metrics.Measure(TagStartBarrier)
	metrics.Measure(TagSearching)

	events := metrics.GetEvents()
	if !reflect.DeepEqual(events, metrics.Events) {
		t.Errorf("GetEvents() did not return Metrics.Events"+
			"\n\texpected: %v\n\treceived: %v", metrics.Events, events)
	}

	metrics.Events[0].Tag = "something else"
	if events[0].Tag != TagStartBarrier {
		t.Errorf("GetEvents() returned the array instead of a copy")
	}
}

// Tests that Set() then Get() round trips a sampled ResourceMetric.
func TestResourceMonitor_Sample(t *testing.T) {
	start := time.Now()
	sample := Sample(start)

	if sample.NumThreads < 1 || sample.MemAllocBytes == 0 {
		t.Errorf("Sample() returned an implausible metric: %+v", sample)
	}
	if sample.Time.Before(start) || !sample.SystemStartTime.Equal(start) {
		t.Errorf("Sample() returned the wrong times: %+v", sample)
	}

	monitor := ResourceMonitor{}
	monitor.Set(sample)
	if !reflect.DeepEqual(sample, monitor.Get()) {
		t.Errorf("Get() returned an incorrect ResourceMetric"+
			"\n\texpected: %v\n\treceived: %v", sample, monitor.Get())
	}
}

func TestWorkerMetrics(t *testing.T) {
	wm := NewWorkerMetrics(3, 8)
	if wm.Rank != 3 || wm.NumWorkers != 8 {
		t.Errorf("NewWorkerMetrics() set the wrong identity: %+v", wm)
	}
	if wm.StartTime.After(time.Now()) {
		t.Errorf("NewWorkerMetrics() set a StartTime in the future")
	}

	metrics := new(Metrics)
	metrics.Measure(TagSearching)
	wm.SetEvents(metrics)
	metrics.Measure(TagExhausted)
	if len(wm.Events) != 1 {
		t.Errorf("SetEvents() did not copy the events, has %d", len(wm.Events))
	}

	time.Sleep(time.Millisecond)
	wm.Stop(42)
	elapsed := wm.Elapsed()
	if wm.Attempts != 42 || elapsed <= 0 {
		t.Errorf("Stop() recorded %d attempts over %s", wm.Attempts, elapsed)
	}
	time.Sleep(time.Millisecond)
	if wm.Elapsed() != elapsed {
		t.Errorf("Elapsed() kept growing after Stop()")
	}
}

// Generates a random string.
func randomString(n int) string {
	var letter = []rune(
		"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

	b := make([]rune, n)
	for i := range b {
		b[i] = letter[rand.Intn(len(letter))]
	}
	return string(b)
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package storage

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
)

// Hidden function for one-time unit testing database implementation
// DROP TABLE runs;
//func TestDatabaseImpl(t *testing.T) {
//	jwalterweatherman.SetLogThreshold(jwalterweatherman.LevelTrace)
//	jwalterweatherman.SetStdoutThreshold(jwalterweatherman.LevelTrace)
//
//	db, err := newDatabase("keysearch", "", "keysearch", "0.0.0.0", "5432")
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//
//	err = db.InsertRun(testRun("a", time.Now()))
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//
//	runs, err := db.GetRuns(10)
//	if err != nil {
//		t.Errorf(err.Error())
//		return
//	}
//	jwalterweatherman.INFO.Printf("Obtained runs %+v", runs)
//}

func testRun(id string, started time.Time) *Run {
	return &Run{
		Id:        id,
		StartedAt: started,
		Phrase:    " the ",
		Digest:    []byte{1, 2, 3, 4, 5, 6, 7, 8, 9},
		Workers:   4,
		Policy:    "contiguous",
		Layout:    "spread",
		KeySpace:  1 << 24,
		Outcome:   "FOUND",
		Key:       123456,
		Attempts:  123457,
		Elapsed:   2 * time.Second,
	}
}

// Tests that newDatabase falls back to the map without connection information
func TestNewStorage_Map(t *testing.T) {
	s, err := NewStorage("", "", "", "", "")
	if err != nil {
		t.Fatalf("NewStorage() returned an error: %+v", err)
	}
	if _, ok := s.database.(*MapImpl); !ok {
		t.Errorf("NewStorage() did not build a map backend: %T", s.database)
	}
}

// Happy path
func TestMapImpl_InsertRun(t *testing.T) {
	s := NewMapStorage()
	run := testRun("run-1", time.Unix(100, 0))

	if err := s.InsertRun(run); err != nil {
		t.Fatalf("InsertRun() returned an error: %+v", err)
	}

	received, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun() returned an error: %+v", err)
	}
	if !reflect.DeepEqual(run, received) {
		t.Errorf("GetRun() returned the wrong run."+
			"\n\texpected: %+v\n\treceived: %+v", run, received)
	}

	// the stored copy is independent of the caller's
	run.Outcome = "EXHAUSTED"
	received, _ = s.GetRun("run-1")
	if received.Outcome != "FOUND" {
		t.Errorf("Stored run changed with the caller's copy")
	}
}

// Error path: IDs are unique
func TestMapImpl_InsertRun_Duplicate(t *testing.T) {
	s := NewMapStorage()
	_ = s.InsertRun(testRun("run-1", time.Now()))

	if err := s.InsertRun(testRun("run-1", time.Now())); err == nil {
		t.Errorf("InsertRun() accepted a duplicate ID")
	}
}

// Error path: the run does not exist
func TestMapImpl_GetRun_Missing(t *testing.T) {
	s := NewMapStorage()
	if _, err := s.GetRun("nope"); err == nil {
		t.Errorf("GetRun() returned a run which was never inserted")
	}
}

func TestMapImpl_GetRuns(t *testing.T) {
	s := NewMapStorage()
	for i := 0; i < 5; i++ {
		err := s.InsertRun(testRun(fmt.Sprintf("run-%d", i), time.Unix(int64(i), 0)))
		if err != nil {
			t.Fatalf("InsertRun() returned an error: %+v", err)
		}
	}

	runs, err := s.GetRuns(3)
	if err != nil {
		t.Fatalf("GetRuns() returned an error: %+v", err)
	}
	expected := []string{"run-4", "run-3", "run-2"}
	if len(runs) != len(expected) {
		t.Fatalf("GetRuns() returned %d runs, expected %d", len(runs), len(expected))
	}
	for i, run := range runs {
		if run.Id != expected[i] {
			t.Errorf("Run %d\n\texpected: %s\n\treceived: %s", i, expected[i], run.Id)
		}
	}

	all, _ := s.GetRuns(0)
	if len(all) != 5 {
		t.Errorf("GetRuns(0) returned %d runs, expected 5", len(all))
	}
}

func TestRun_String(t *testing.T) {
	run := testRun("run-1", time.Unix(0, 0).UTC())
	s := run.String()
	for _, part := range []string{"run-1", "key=123456", "attempts=123457",
		"digest=0102030405060708"} {
		if !strings.Contains(s, part) {
			t.Errorf("%q is missing %q", s, part)
		}
	}

	run.Outcome = "TIMED_OUT"
	if strings.Contains(run.String(), "123456 ") {
		t.Errorf("A run without a key printed one: %q", run.String())
	}

	if rate := run.Rate(); rate != 123457.0/2 {
		t.Errorf("Rate()\n\texpected: %v\n\treceived: %v", 123457.0/2, rate)
	}
}

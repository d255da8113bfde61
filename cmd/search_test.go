////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"gitlab.com/elixxir/keysearch/cmd/conf"
	"gitlab.com/elixxir/keysearch/internal/coordinator"
	"gitlab.com/elixxir/keysearch/internal/measure"
	"gitlab.com/elixxir/keysearch/storage"
	"gopkg.in/yaml.v2"
)

// An empty database config falls back to the in-memory ledger.
func TestNewStorage_Map(t *testing.T) {
	store := newStorage(conf.Database{})
	if store == nil {
		t.Fatalf("newStorage returned nil")
	}

	run := &storage.Run{Id: "run", Phrase: "the"}
	if err := store.InsertRun(run); err != nil {
		t.Fatalf("Failed to insert run: %+v", err)
	}
	runs, err := store.GetRuns(0)
	if err != nil {
		t.Fatalf("Failed to get runs: %+v", err)
	}
	if len(runs) != 1 || runs[0].Id != "run" {
		t.Errorf("Unexpected runs in the ledger: %+v", runs)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	s := &coordinator.Summary{RunID: "abc", Phrase: "the"}

	writeReport("", s)
	writeReport(path, s)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Report was not written: %+v", err)
	}
	out := map[string]interface{}{}
	if err = yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("Report is not valid YAML: %+v", err)
	}
	if len(out) == 0 {
		t.Errorf("Report is empty:\n%s", data)
	}
}

func TestLogUsage(t *testing.T) {
	monitor := &measure.ResourceMonitor{}
	logUsage(monitor)
	first := monitor.Get()
	if first.Time.IsZero() || first.NumThreads <= 0 {
		t.Errorf("logUsage did not record a sample: %+v", first)
	}

	logUsage(monitor)
	if second := monitor.Get(); second.Time.Before(first.Time) {
		t.Errorf("logUsage recorded an older sample"+
			"\n\texpected: after %s\n\treceived: %s", first.Time, second.Time)
	}
}

func TestReceiveSignal(t *testing.T) {
	called := make(chan struct{}, 1)
	stop := ReceiveSignal(func() { called <- struct{}{} }, syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Failed to send signal: %+v", err)
	}

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Errorf("Signal handler was not called")
	}
}

func TestStartProfile_Disabled(t *testing.T) {
	profileMode = ""
	if _, ok := startProfile().(noProfile); !ok {
		t.Errorf("startProfile started a profile without --profile")
	}

	profileMode = "bogus"
	defer func() { profileMode = "" }()
	if _, ok := startProfile().(noProfile); !ok {
		t.Errorf("startProfile started a profile for an unknown mode")
	}
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the Map backend for run storage

package storage

import (
	"github.com/pkg/errors"
)

// InsertRun inserts the given Run into Map
// Or returns an error if a Run with the same ID exists
func (m *MapImpl) InsertRun(run *Run) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.runs[run.Id]; ok {
		return errors.Errorf("Run %s already exists", run.Id)
	}

	stored := *run
	m.runs[run.Id] = &stored
	m.order = append(m.order, run.Id)
	return nil
}

// GetRun returns a Run from Map with the given ID
// Or an error if a matching Run does not exist
func (m *MapImpl) GetRun(id string) (*Run, error) {
	m.Lock()
	defer m.Unlock()

	if val, ok := m.runs[id]; ok {
		run := *val
		return &run, nil
	}
	return nil, errors.Errorf("Unable to locate Run for ID %s", id)
}

// GetRuns returns up to limit Runs from Map, most recent first. A
// non-positive limit returns every Run.
func (m *MapImpl) GetRuns(limit int) ([]*Run, error) {
	m.Lock()
	defer m.Unlock()

	n := len(m.order)
	if limit > 0 && limit < n {
		n = limit
	}

	runs := make([]*Run, 0, n)
	for i := len(m.order) - 1; i >= 0 && len(runs) < n; i-- {
		run := *m.runs[m.order[i]]
		runs = append(runs, &run)
	}
	return runs, nil
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the high level storage API.
// This layer merges the business logic layer and the database layer

package storage

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cznic/mathutil"
	"gitlab.com/elixxir/keysearch/internal/state"
)

// Storage API for the storage layer
type Storage struct {
	// Stored database interface
	database
}

// NewStorage Create a new Storage object wrapping a database interface
func NewStorage(username, password, dbName, address, port string) (*Storage, error) {
	db, err := newDatabase(username, password, dbName, address, port)
	storage := &Storage{db}
	return storage, err
}

// NewMapStorage returns a Storage which keeps runs in memory.
func NewMapStorage() *Storage {
	return &Storage{&MapImpl{runs: make(map[string]*Run)}}
}

// Rate returns the attempts per second of the run.
func (r *Run) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Attempts) / r.Elapsed.Seconds()
}

func (r *Run) String() string {
	key := "-"
	if r.Outcome == state.Found.String() {
		key = fmt.Sprintf("%d", r.Key)
	}
	label := r.Label
	if label == "" {
		label = "-"
	}
	return fmt.Sprintf("%s  %s  %-8s %-10s %-9s key=%-18s attempts=%-12d "+
		"%-12s digest=%s", r.Id, r.StartedAt.Format(time.RFC3339), label,
		r.Policy, r.Outcome, key, r.Attempts, r.Elapsed.Round(time.Millisecond),
		hex.EncodeToString(r.Digest[:mathutil.Min(len(r.Digest), 8)]))
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the database ORM for runs

package storage

import (
	"context"
	"errors"
	"time"

	jww "github.com/spf13/jwalterweatherman"
)

// Helper for forcing panics in the event of a CDE, otherwise acts as a pass-through
func catchCde(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		jww.FATAL.Panicf("Database call timed out: %+v", err.Error())
	}
	return err
}

// InsertRun inserts the given Run into Database
func (d *DatabaseImpl) InsertRun(run *Run) error {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	return catchCde(d.db.WithContext(ctx).Create(run).Error)
}

// GetRun returns a Run from Database with the given ID
// Or an error if a matching Run does not exist
func (d *DatabaseImpl) GetRun(id string) (*Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	result := &Run{Id: id}
	err := d.db.WithContext(ctx).Take(result).Error
	return result, catchCde(err)
}

// GetRuns returns up to limit Runs from Database, most recent first. A
// non-positive limit returns every Run.
func (d *DatabaseImpl) GetRuns(limit int) ([]*Run, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DbTimeout*time.Second)
	defer cancel()

	var runs []*Run
	query := d.db.WithContext(ctx).Order("started_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&runs).Error
	return runs, catchCde(err)
}

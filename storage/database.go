////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles low level database control and interfaces

package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DbTimeout determines maximum runtime (in seconds) of specific DB queries
const DbTimeout = 1

// Interface declaration for storage methods
type database interface {
	InsertRun(run *Run) error
	GetRun(id string) (*Run, error)
	GetRuns(limit int) ([]*Run, error)
}

// DatabaseImpl Struct implementing the database Interface with an underlying DB
type DatabaseImpl struct {
	db *gorm.DB // Stored database connection
}

// MapImpl Struct implementing the database Interface with an underlying Map
type MapImpl struct {
	runs  map[string]*Run
	order []string
	sync.Mutex
}

// Run is the record of one completed search. It holds no search state; a run
// cannot be resumed from it.
type Run struct {
	Id        string    `gorm:"primaryKey"`
	StartedAt time.Time `gorm:"not null;index"`
	Label     string

	// Search parameters
	Phrase   string `gorm:"not null"`
	Digest   []byte `gorm:"not null"`
	Workers  int    `gorm:"not null"`
	Policy   string `gorm:"not null"`
	Layout   string `gorm:"not null"`
	KeySpace uint64 `gorm:"not null"`
	Hint     uint64
	Radius   uint64
	Timeout  time.Duration

	// Results
	Outcome  string `gorm:"not null"`
	Key      uint64
	Attempts uint64        `gorm:"not null"`
	Elapsed  time.Duration `gorm:"not null"`
}

// Initialize the database interface with database backend. Without
// connection information, or when the connection fails, runs are kept in
// memory for the life of the process.
func newDatabase(username, password, dbName, address, port string) (database, error) {
	var err error
	var db *gorm.DB

	// Connect to the database if the correct information is provided
	if address != "" && port != "" {
		// Create the database connection
		connectString := fmt.Sprintf(
			"host=%s port=%s user=%s dbname=%s sslmode=disable",
			address, port, username, dbName)
		// Handle empty database password
		if len(password) > 0 {
			connectString += fmt.Sprintf(" password=%s", password)
		}
		db, err = gorm.Open(postgres.Open(connectString), &gorm.Config{
			Logger: logger.New(jww.TRACE, logger.Config{LogLevel: logger.Info}),
		})
	}

	// Return the map-backend interface
	// in the event there is a database error or information is not provided
	if (address == "" || port == "") || err != nil {
		if err != nil {
			jww.WARN.Printf("Unable to initialize database backend: %+v", err)
		} else {
			jww.DEBUG.Printf("Database backend connection information not provided")
		}

		defer jww.DEBUG.Println("Map backend initialized successfully!")
		mapImpl := &MapImpl{
			runs: make(map[string]*Run),
		}

		return database(mapImpl), nil
	}

	// Get and configure the internal database ConnPool
	sqlDb, err := db.DB()
	if err != nil {
		return database(&DatabaseImpl{}), errors.Errorf("Unable to configure database connection pool: %+v", err)
	}
	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	sqlDb.SetMaxIdleConns(2)
	// SetMaxOpenConns sets the maximum number of open connections to the Database.
	sqlDb.SetMaxOpenConns(10)
	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	sqlDb.SetConnMaxLifetime(time.Hour)

	// Initialize the database schema
	models := []interface{}{&Run{}}
	for _, model := range models {
		err = db.AutoMigrate(model)
		if err != nil {
			return database(&DatabaseImpl{}), err
		}
	}

	di := &DatabaseImpl{
		db: db,
	}

	jww.INFO.Println("Database backend initialized successfully!")
	return database(di), nil
}

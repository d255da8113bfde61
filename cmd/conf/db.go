////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"github.com/spf13/viper"
)

// Contains Database config params. Leaving Address or Port empty keeps the
// run ledger in memory.
type Database struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Address  string `yaml:"address"`
	Port     string `yaml:"port"`
}

// NewDatabase reads the database section of the configuration.
func NewDatabase(vip *viper.Viper) Database {
	return Database{
		Name:     vip.GetString("database.name"),
		Username: vip.GetString("database.username"),
		Password: vip.GetString("database.password"),
		Address:  vip.GetString("database.address"),
		Port:     vip.GetString("database.port"),
	}
}

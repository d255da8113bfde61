////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

// Release information printed by the version command. Update SEMVER and
// DEPENDENCIES with each release; GITVERSION can be set at build time with
// -ldflags "-X gitlab.com/elixxir/keysearch/cmd.GITVERSION=<commit>".

var GITVERSION = "unknown"

const SEMVER = "1.2.0"
const DEPENDENCIES = `module gitlab.com/elixxir/keysearch

go 1.19

require (
	github.com/cznic/mathutil v0.0.0-20181122101859-297441e03548
	github.com/google/uuid v1.3.0
	github.com/jinzhu/copier v0.3.5
	github.com/mitchellh/go-homedir v1.1.0
	github.com/pkg/errors v0.9.1
	github.com/pkg/profile v1.7.0
	github.com/spf13/cobra v1.1.1
	github.com/spf13/jwalterweatherman v1.1.0
	github.com/spf13/viper v1.7.1
	go.uber.org/goleak v1.2.0
	golang.org/x/crypto v0.5.0
	golang.org/x/sync v0.1.0
	gopkg.in/yaml.v2 v2.4.0
	gorm.io/driver/postgres v1.1.2
	gorm.io/gorm v1.21.16
)
`

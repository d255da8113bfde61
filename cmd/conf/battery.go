////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultBatteryTimeout bounds each test of the battery.
const DefaultBatteryTimeout = 60 * time.Second

// BatteryTest is one key of the test battery.
type BatteryTest struct {
	Name string `yaml:"name"`
	Key  uint64 `yaml:"key"`
}

// Battery runs the same search once per key, each under its own timeout.
type Battery struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
	Tests   []BatteryTest `yaml:"tests"`
}

// DefaultBatteryTests spread the real key over the key space so the battery
// shows how far into the space a search gets before its timeout.
var DefaultBatteryTests = []BatteryTest{
	{Name: "Extra", Key: 2251799813685248},  // 2^51
	{Name: "Facil", Key: 36028797018963969}, // 2^56/2 + 1
	{Name: "Media", Key: 45035996273704960}, // 2^56/2 + 2^56/8
	{Name: "Dificil", Key: 15836833854489657},
}

func newBattery(vip *viper.Viper) (Battery, error) {
	b := Battery{
		Enabled: vip.GetBool("battery.enabled"),
		Timeout: DefaultBatteryTimeout,
		Tests:   DefaultBatteryTests,
	}

	if vip.IsSet("battery.timeout") {
		b.Timeout = vip.GetDuration("battery.timeout")
		if b.Timeout < 0 {
			return b, errors.WithMessagef(ErrConfig,
				"battery timeout must not be negative, received %s", b.Timeout)
		}
	}

	if vip.IsSet("battery.tests") {
		var tests []BatteryTest
		if err := vip.UnmarshalKey("battery.tests", &tests); err != nil {
			return b, errors.WithMessagef(ErrConfig,
				"could not parse battery tests: %s", err)
		}
		if len(tests) == 0 {
			return b, errors.WithMessage(ErrConfig, "battery has no tests")
		}
		b.Tests = tests
	}

	for _, test := range b.Tests {
		if err := checkKey(test.Key, "battery key "+test.Name); err != nil {
			return b, err
		}
	}

	return b, nil
}

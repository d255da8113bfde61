////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package conf turns the viper configuration into validated search
// parameters.
package conf

import (
	"encoding/hex"
	"runtime"
	"strings"
	"time"

	"github.com/cznic/mathutil"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/keysearch/internal/cryptops"
	"gitlab.com/elixxir/keysearch/internal/partition"
)

// ErrConfig is wrapped by every parameter error.
var ErrConfig = errors.New("invalid configuration")

const (
	// DefaultFile is read when neither a file nor a ciphertext is given.
	DefaultFile = "input.txt"
	// DefaultRadius is the radial search radius when none is given.
	DefaultRadius = 1000000
	// DefaultProgressInterval is the minimum time between progress lines.
	DefaultProgressInterval = 2 * time.Second
)

// Params is the validated configuration of a search.
// It should be constructed using a viper object
type Params struct {
	Search   Search
	Battery  Battery
	Database Database
	Paths    Paths
}

// Search holds what the coordinator needs to run one search.
type Search struct {
	Phrase string
	// File is encrypted under Key when Ciphertext is empty.
	File       string
	Ciphertext []byte
	// Key is the real key. It is only known when KeySet is true.
	Key    uint64
	KeySet bool

	KeySpace uint64
	Workers  int
	Policy   partition.Policy
	Layout   cryptops.Layout
	Hint     uint64
	Radius   uint64

	Timeout          time.Duration
	TimeoutEnabled   bool
	CheckInterval    uint64
	ProgressInterval time.Duration
}

// NewParams gets elements of the viper object and builds the params object.
// Every error it returns wraps ErrConfig.
func NewParams(vip *viper.Viper) (*Params, error) {
	params := &Params{}
	var err error

	params.Paths.Report = vip.GetString("report")

	params.Database = NewDatabase(vip)

	if params.Search, err = newSearch(vip); err != nil {
		return nil, err
	}
	if params.Battery, err = newBattery(vip); err != nil {
		return nil, err
	}

	if params.Battery.Enabled && len(params.Search.Ciphertext) > 0 {
		return nil, errors.WithMessage(ErrConfig,
			"the battery encrypts a file and cannot use a given ciphertext")
	}
	if !params.Battery.Enabled && len(params.Search.Ciphertext) == 0 &&
		!params.Search.KeySet {
		return nil, errors.WithMessage(ErrConfig,
			"a real key is required to encrypt the input file")
	}

	return params, nil
}

func newSearch(vip *viper.Viper) (Search, error) {
	s := Search{}
	var err error

	s.Phrase = vip.GetString("phrase")
	if s.Phrase == "" {
		return s, errors.WithMessage(ErrConfig, "a search phrase is required")
	}

	if encoded := strings.TrimSpace(vip.GetString("ciphertext")); encoded != "" {
		s.Ciphertext, err = hex.DecodeString(encoded)
		if err != nil {
			return s, errors.WithMessagef(ErrConfig, "malformed ciphertext: %s", err)
		}
		if len(s.Ciphertext) == 0 || len(s.Ciphertext)%cryptops.BlockSize != 0 {
			return s, errors.WithMessagef(ErrConfig, "ciphertext of %d bytes "+
				"is not a multiple of %d", len(s.Ciphertext), cryptops.BlockSize)
		}
		if vip.IsSet("file") {
			jww.WARN.Printf("Ignoring file %q, a ciphertext was given",
				vip.GetString("file"))
		}
	} else {
		s.File = vip.GetString("file")
		if s.File == "" {
			s.File = DefaultFile
		}
	}

	if vip.IsSet("key") {
		s.Key = vip.GetUint64("key")
		s.KeySet = true
		if s.Key == 0 {
			return s, errors.WithMessage(ErrConfig, "key must be positive")
		}
		if err = checkKey(s.Key, "key"); err != nil {
			return s, err
		}
	}

	if s.KeySpace, err = keySpace(vip); err != nil {
		return s, err
	}
	if s.KeySet && s.Key >= s.KeySpace {
		jww.WARN.Printf("Key %d is outside the searched space of %d keys",
			s.Key, s.KeySpace)
	}

	s.Workers = vip.GetInt("workers")
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.Workers < 0 {
		return s, errors.WithMessagef(ErrConfig,
			"worker count must be positive, received %d", s.Workers)
	}

	policy := vip.GetString("policy")
	if policy == "" {
		policy = partition.Contiguous.String()
	}
	if s.Policy, err = partition.ParsePolicy(policy); err != nil {
		return s, errors.WithMessage(ErrConfig, err.Error())
	}

	layout := vip.GetString("layout")
	if layout == "" {
		layout = cryptops.Spread.String()
	}
	if s.Layout, err = cryptops.ParseLayout(layout); err != nil {
		return s, errors.WithMessage(ErrConfig, err.Error())
	}

	if s.Policy == partition.Radial {
		if !vip.IsSet("hint") {
			return s, errors.WithMessage(ErrConfig,
				"the radial policy needs a hint")
		}
		s.Hint = vip.GetUint64("hint")
		if s.Hint >= s.KeySpace {
			return s, errors.WithMessagef(ErrConfig,
				"hint %d is outside the key space of %d keys", s.Hint, s.KeySpace)
		}
		s.Radius = DefaultRadius
		if vip.IsSet("radius") {
			s.Radius = vip.GetUint64("radius")
			if s.Radius == 0 {
				return s, errors.WithMessage(ErrConfig,
					"radius must be positive")
			}
		}
	}

	if vip.IsSet("timeout") {
		s.Timeout = vip.GetDuration("timeout")
		s.TimeoutEnabled = true
		if s.Timeout < 0 {
			return s, errors.WithMessagef(ErrConfig,
				"timeout must not be negative, received %s", s.Timeout)
		}
	}

	s.CheckInterval = vip.GetUint64("checkInterval")

	s.ProgressInterval = DefaultProgressInterval
	if vip.IsSet("progressInterval") {
		s.ProgressInterval = vip.GetDuration("progressInterval")
	}

	return s, nil
}

// keySpace is 2^bits, or maxKey+1 when a maximum key is given.
func keySpace(vip *viper.Viper) (uint64, error) {
	if vip.IsSet("maxKey") {
		maxKey := vip.GetUint64("maxKey")
		if err := checkKey(maxKey, "maximum key"); err != nil {
			return 0, err
		}
		return maxKey + 1, nil
	}

	bits := cryptops.MaxKeyBits
	if vip.IsSet("bits") {
		bits = vip.GetInt("bits")
	}
	if bits < 1 || bits > cryptops.MaxKeyBits {
		return 0, errors.WithMessagef(ErrConfig,
			"key bits must be between 1 and %d, received %d",
			cryptops.MaxKeyBits, bits)
	}
	return 1 << uint(bits), nil
}

func checkKey(key uint64, name string) error {
	if mathutil.BitLenUint64(key) > cryptops.MaxKeyBits {
		return errors.WithMessagef(ErrConfig, "%s %d does not fit in %d bits",
			name, key, cryptops.MaxKeyBits)
	}
	return nil
}

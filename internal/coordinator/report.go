////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package coordinator

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// report is the YAML form of a Summary.
type report struct {
	RunID     string    `yaml:"runID"`
	Label     string    `yaml:"label,omitempty"`
	StartedAt time.Time `yaml:"startedAt"`

	Workers  int    `yaml:"workers"`
	Policy   string `yaml:"policy"`
	Layout   string `yaml:"layout"`
	KeySpace uint64 `yaml:"keySpace"`
	Phrase   string `yaml:"phrase"`
	Digest   string `yaml:"digest"`

	Outcome     string  `yaml:"outcome"`
	Interrupted bool    `yaml:"interrupted,omitempty"`
	Key         *uint64 `yaml:"key,omitempty"`
	Plaintext   string  `yaml:"plaintext,omitempty"`
	RealKey     *uint64 `yaml:"realKey,omitempty"`
	KeyMatches  bool    `yaml:"keyMatches,omitempty"`

	Attempts       uint64   `yaml:"attempts"`
	WorkerAttempts []uint64 `yaml:"workerAttempts"`
	Elapsed        string   `yaml:"elapsed"`
	KeysPerSecond  float64  `yaml:"keysPerSecond"`

	Radial      *RadialStats `yaml:"radial,omitempty"`
	Warnings    []string     `yaml:"warnings,omitempty"`
	Suggestions []string     `yaml:"suggestions,omitempty"`
}

func newReport(s *Summary) report {
	r := report{
		RunID:          s.RunID,
		Label:          s.Label,
		StartedAt:      s.StartedAt,
		Workers:        s.Workers,
		Policy:         s.Policy.String(),
		Layout:         s.Layout.String(),
		KeySpace:       s.KeySpace,
		Phrase:         s.Phrase,
		Digest:         s.Digest,
		Outcome:        s.Outcome.String(),
		Interrupted:    s.Interrupted,
		Plaintext:      s.Plaintext,
		KeyMatches:     s.KeyMatches,
		Attempts:       s.Attempts,
		WorkerAttempts: s.WorkerAttempts,
		Elapsed:        s.Elapsed.String(),
		KeysPerSecond:  s.Rate,
		Radial:         s.Radial,
		Warnings:       s.Warnings,
		Suggestions:    s.Suggestions,
	}
	if s.Found() {
		key := s.Key
		r.Key = &key
	}
	if s.RealKeySet {
		realKey := s.RealKey
		r.RealKey = &realKey
	}
	return r
}

// MarshalReport returns the YAML report of one or more summaries.
func MarshalReport(summaries ...*Summary) ([]byte, error) {
	reports := make([]report, len(summaries))
	for i, s := range summaries {
		reports[i] = newReport(s)
	}

	var out interface{} = reports
	if len(reports) == 1 {
		out = reports[0]
	}
	buf, err := yaml.Marshal(out)
	return buf, errors.Wrap(err, "failed to marshal report")
}

// WriteReport writes the YAML report of the summaries to path.
func WriteReport(path string, summaries ...*Summary) error {
	buf, err := MarshalReport(summaries...)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, buf, 0644), "failed to write report %s", path)
}

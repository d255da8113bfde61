////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package coordinator

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/keysearch/cmd/conf"
	"gitlab.com/elixxir/keysearch/internal/measure"
	"gitlab.com/elixxir/keysearch/storage"
)

// RunBattery encrypts the input under each key of the battery in turn and
// searches for it under the battery timeout. It stops at the first error;
// summaries of the tests run so far are returned with it.
func RunBattery(ctx context.Context, params conf.Search, battery conf.Battery,
	store *storage.Storage, opts ...Option) ([]*Summary, error) {
	summaries := make([]*Summary, 0, len(battery.Tests))

	for i, test := range battery.Tests {
		p := params
		p.Key = test.Key
		p.KeySet = true
		p.Ciphertext = nil
		p.Timeout = battery.Timeout
		p.TimeoutEnabled = true

		jww.INFO.Printf("Battery test %d/%d (%s): key %d, timeout %s", i+1,
			len(battery.Tests), test.Name, test.Key, battery.Timeout)

		testOpts := append([]Option{WithLabel(test.Name)}, opts...)
		s, err := New(p, store, testOpts...).Run(ctx)
		if s != nil {
			summaries = append(summaries, s)
		}
		if err != nil {
			return summaries, errors.WithMessagef(err, "battery test %s", test.Name)
		}
	}

	return summaries, nil
}

// PrintBattery writes one row per battery test.
func PrintBattery(w io.Writer, summaries []*Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TEST\tKEY\tOUTCOME\tFOUND\tATTEMPTS\tELAPSED\tRATE")

	found := 0
	for _, s := range summaries {
		key := "-"
		if s.Found() {
			found++
			key = fmt.Sprintf("%d", s.Key)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n", s.Label,
			s.RealKey, s.Outcome, key, s.Attempts,
			s.Elapsed.Round(time.Millisecond), measure.FormatRate(s.Rate))
	}
	_, _ = fmt.Fprintf(tw, "\n%d of %d keys found\n", found, len(summaries))
	return tw.Flush()
}

////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the search command

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/keysearch/cmd/conf"
	"gitlab.com/elixxir/keysearch/internal/coordinator"
	"gitlab.com/elixxir/keysearch/internal/measure"
	"gitlab.com/elixxir/keysearch/storage"
)

func init() {
	rootCmd.AddCommand(searchCmd)

	flags := searchCmd.Flags()
	flags.StringP("phrase", "s", "", "Phrase the plaintext must contain (required)")
	flags.StringP("file", "f", conf.DefaultFile, "Plaintext file to encrypt under --key")
	flags.String("ciphertext", "", "Hex ciphertext to search instead of encrypting --file")
	flags.Uint64P("key", "k", 0, "Real key used to encrypt --file")
	flags.Uint64("hint", 0, "Approximate key the radial policy starts from")
	flags.Uint64P("radius", "r", conf.DefaultRadius, "Radius around --hint searched by the radial policy")
	flags.Uint64("maxKey", 0, "Largest key searched, overrides --bits")
	flags.IntP("bits", "b", 56, "Search the keys below 2^bits")
	flags.IntP("workers", "n", 0, "Number of workers, the number of CPUs if 0")
	flags.StringP("policy", "p", "contiguous", "Key assignment: contiguous, strided or radial")
	flags.String("layout", "spread", "Integer to DES key layout: spread or packed")
	flags.DurationP("timeout", "t", 0, "Stop searching after this long, no limit unless set")
	flags.Uint64("checkInterval", 0, "Attempts between checks for a found key, picked from the policy if 0")
	flags.Duration("progressInterval", conf.DefaultProgressInterval, "Minimum time between progress lines")
	flags.String("report", "", "Write a YAML report of the run to this file")
	flags.Bool("battery", false, "Run the test battery over --file instead of a single search")
	flags.Duration("batteryTimeout", conf.DefaultBatteryTimeout, "Timeout of each battery test")

	keys := map[string]string{
		"phrase":           "phrase",
		"file":             "file",
		"ciphertext":       "ciphertext",
		"key":              "key",
		"hint":             "hint",
		"radius":           "radius",
		"maxKey":           "maxKey",
		"bits":             "bits",
		"workers":          "workers",
		"policy":           "policy",
		"layout":           "layout",
		"timeout":          "timeout",
		"checkInterval":    "checkInterval",
		"progressInterval": "progressInterval",
		"report":           "report",
		"battery.enabled":  "battery",
		"battery.timeout":  "batteryTimeout",
	}
	for key, flag := range keys {
		err := viper.BindPFlag(key, flags.Lookup(flag))
		handleBindingError(err, flag)
	}
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for the key of a ciphertext",
	Long: `Search for the DES key of a ciphertext. Without --ciphertext the
plaintext in --file is first encrypted under --key, simulating an attack on a
known key. The search stops as soon as a worker finds a key whose decryption
contains --phrase, when the key space is exhausted or when --timeout expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := conf.NewParams(viper.GetViper())
		if err != nil {
			return err
		}

		store := newStorage(params.Database)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stop := ReceiveExitSignal()
		defer signal.Stop(stop)
		go func() {
			select {
			case sig := <-stop:
				jww.WARN.Printf("Received %s, stopping the search", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		monitor := &measure.ResourceMonitor{}
		stopUsage := ReceiveSignal(func() { logUsage(monitor) }, syscall.SIGUSR1)
		defer stopUsage()

		prof := startProfile()
		defer prof.Stop()

		if params.Battery.Enabled {
			summaries, err := coordinator.RunBattery(ctx, params.Search,
				params.Battery, store)
			for _, s := range summaries {
				s.Print(os.Stdout)
				os.Stdout.WriteString("\n")
			}
			if len(summaries) > 0 {
				if perr := coordinator.PrintBattery(os.Stdout, summaries); perr != nil {
					jww.WARN.Printf("Failed to print battery table: %+v", perr)
				}
				writeReport(params.Paths.Report, summaries...)
			}
			return err
		}

		s, err := coordinator.New(params.Search, store).Run(ctx)
		if s != nil {
			s.Print(os.Stdout)
			writeReport(params.Paths.Report, s)
		}
		return err
	},
}

var processStart = time.Now()

// logUsage samples the resources used by the process and logs how they
// changed since the previous sample.
func logUsage(monitor *measure.ResourceMonitor) {
	last := monitor.Get()
	current := measure.Sample(processStart)
	monitor.Set(current)

	jww.INFO.Printf("Uptime %s, %d goroutines, %d bytes allocated, "+
		"%d bytes free", current.Time.Sub(processStart).Round(time.Millisecond),
		current.NumThreads, current.MemAllocBytes, current.MemAvailable)
	if !last.Time.IsZero() {
		jww.INFO.Printf("Allocated %d bytes since %s",
			int64(current.MemAllocBytes)-int64(last.MemAllocBytes),
			last.Time.Format(time.RFC3339))
	}
}

func writeReport(path string, summaries ...*coordinator.Summary) {
	if path == "" {
		return
	}
	if err := coordinator.WriteReport(path, summaries...); err != nil {
		jww.ERROR.Printf("%+v", err)
		return
	}
	jww.INFO.Printf("Report written to %s", path)
}

// newStorage opens the run ledger, keeping it in memory if the database
// cannot be used.
func newStorage(db conf.Database) *storage.Storage {
	store, err := storage.NewStorage(db.Username, db.Password, db.Name,
		db.Address, db.Port)
	if err != nil {
		jww.WARN.Printf("Run ledger unavailable, keeping runs in memory: %+v", err)
		return storage.NewMapStorage()
	}
	return store
}

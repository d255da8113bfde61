////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the history command

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/keysearch/cmd/conf"
	"gitlab.com/elixxir/keysearch/storage"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20,
		"Most runs to list, all of them if 0")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent runs recorded in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := conf.NewDatabase(viper.GetViper())
		store, err := storage.NewStorage(db.Username, db.Password, db.Name,
			db.Address, db.Port)
		if err != nil {
			return err
		}

		runs, err := store.GetRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}
		for _, run := range runs {
			fmt.Println(run.String())
		}
		return nil
	},
}

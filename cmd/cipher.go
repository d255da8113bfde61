////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Handles the encrypt and decrypt commands, used to prepare and check
// ciphertexts for the search command

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/elixxir/keysearch/internal/cryptops"
	"gitlab.com/elixxir/keysearch/internal/verify"
)

var (
	cipherKey    uint64
	cipherFile   string
	cipherHex    string
	cipherLayout string
)

func init() {
	rootCmd.AddCommand(encryptCmd, decryptCmd)

	encryptCmd.Flags().Uint64VarP(&cipherKey, "key", "k", 0, "Key to encrypt with")
	encryptCmd.Flags().StringVarP(&cipherFile, "file", "f", "input.txt",
		"Plaintext file to encrypt")
	encryptCmd.Flags().StringVar(&cipherLayout, "layout", "spread",
		"Integer to DES key layout: spread or packed")

	decryptCmd.Flags().Uint64VarP(&cipherKey, "key", "k", 0, "Key to decrypt with")
	decryptCmd.Flags().StringVar(&cipherHex, "ciphertext", "", "Hex ciphertext to decrypt")
	decryptCmd.Flags().StringVar(&cipherLayout, "layout", "spread",
		"Integer to DES key layout: spread or packed")
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a file and print the ciphertext as hex",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := cryptops.ParseLayout(cipherLayout)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(cipherFile)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", cipherFile)
		}
		buf := cryptops.Pad(data)
		if len(buf) == 0 {
			return errors.Errorf("%s is empty", cipherFile)
		}
		if err = cryptops.Encrypt(cipherKey, layout, buf); err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(buf))
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a hex ciphertext and print the plaintext",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := cryptops.ParseLayout(cipherLayout)
		if err != nil {
			return err
		}
		buf, err := hex.DecodeString(strings.TrimSpace(cipherHex))
		if err != nil {
			return errors.Wrap(err, "malformed ciphertext")
		}
		if err = cryptops.Decrypt(cipherKey, layout, buf); err != nil {
			return err
		}
		fmt.Println(string(verify.Terminate(buf)))
		return nil
	},
}

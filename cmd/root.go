////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var cfgFile string
var verbose bool
var logPath string

// If set, profiles the command: cpu, mem or block
var profileMode string

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "keysearch",
	Short: "Distributed brute force search for a DES key",
	Long: `keysearch recovers a DES key from a ciphertext and a phrase known to
appear in the plaintext. The key space is split between workers which stop as
soon as one of them finds the key.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("keysearch exiting with error: %+v", err)
		os.Exit(1)
	}
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default is $HOME/.elixxir/keysearch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.PersistentFlags().StringVarP(&logPath, "logPath", "l", "",
		"File to write the log to, standard output only if empty")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "",
		"Write a cpu, mem or block profile of the command to the "+
			"working directory")

	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	handleBindingError(err, "verbose")

	err = viper.BindPFlag("logPath", rootCmd.PersistentFlags().Lookup("logPath"))
	handleBindingError(err, "logPath")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set. The config file
// is optional unless given explicitly.
func initConfig() {
	viper.SetEnvPrefix("KEYSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	explicit := cfgFile != ""
	//Use default config location if none is passed
	if !explicit {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}

		cfgFile = home + "/.elixxir/keysearch.yaml"
	}

	if _, err := os.Stat(cfgFile); err != nil {
		if explicit {
			jww.FATAL.Panicf("Invalid config file (%s): %s", cfgFile,
				err.Error())
		}
		return
	}

	viper.SetConfigFile(cfgFile)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		jww.FATAL.Panicf("Unable to read config file (%s): %s", cfgFile,
			err.Error())
	}
	jww.DEBUG.Printf("Using config file %s", viper.ConfigFileUsed())
}

// initLog initializes logging thresholds and the log path.
func initLog() {
	// If verbose flag set then log more info for debugging
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelInfo)
	}

	if path := viper.GetString("logPath"); path != "" {
		// Create log file, overwrites if existing
		logFile, err := os.Create(path)
		if err != nil {
			fmt.Printf("Invalid log path %s, logging to standard "+
				"output only.\n", path)
		} else {
			jww.SetLogOutput(logFile)
		}
	}
}

type stopper interface {
	Stop()
}

type noProfile struct{}

func (noProfile) Stop() {}

// startProfile starts the profile named by --profile. The returned value
// must be stopped before the command returns.
func startProfile() stopper {
	opts := []func(*profile.Profile){profile.ProfilePath("."),
		profile.NoShutdownHook, profile.Quiet}

	switch profileMode {
	case "":
		return noProfile{}
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "block":
		opts = append(opts, profile.BlockProfile)
	default:
		jww.WARN.Printf("Unknown profile %q, not profiling", profileMode)
		return noProfile{}
	}

	jww.INFO.Printf("Writing %s profile to the working directory", profileMode)
	return profile.Start(opts...)
}

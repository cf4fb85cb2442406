// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvtargets",
	Short: "pvtargets computes supervised-learning labels for the Penny Vault family of tools",
	Long: `pvtargets is a command line utility for computing supervised-learning
target values (labels) for companies from quarterly reports and daily market
observations. Labels computed by pvtargets pair with feature matrices built
elsewhere in the penny-vault ecosystem to train and evaluate models.

Every label is computed point-in-time: a request row names a company and an
as-of date, and the engine only reads history that was available on that
date. Label families include raw quarterly values, quarter-over-quarter
changes (raw, normalized, and binarized), aggregates over daily windows,
smoothed quarter-over-quarter changes, the jump in a daily series around a
report, and static company attributes.

Series can be read from several backends:

	* per-ticker JSON files from a bulk download
	* a PostgreSQL database
	* live queries against [Nasdaq Data Link](https://data.nasdaq.com)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvtargets.toml)")
	rootCmd.PersistentFlags().String("backend", "", "dataset backend to read series from (files, database, or nasdaq)")
	if err := viper.BindPFlag("dataset.backend", rootCmd.PersistentFlags().Lookup("backend")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for backend failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvtargets" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvtargets")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}

/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"runlog/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "runlog",
	Short: "Import Strava activities into a versioned JSON training log.",
	Long: `
**********************************************
*                 RUNLOG                     *
**********************************************

This CLI turns a Strava bulk export or the Strava API into one normalized,
versioned JSON dataset. Runs that look like structured workouts are
classified interactively and the answers are cached. Free-form lift notes
can be parsed into records with a chat model.

Supported input formats:
- CSV: activities.csv from the Strava bulk export
- Excel: .xlsx, .xlsm, .xls
`,
	Example: `
  # Create configuration file
  runlog config create

  # Authorize API access once
  runlog auth login

  # Rebuild the dataset from a bulk export
  runlog import -i export/activities.csv

  # Fetch new activities since the last run
  runlog import

  # Parse lift notes into records and append them
  runlog parse --input lifts.txt --append

  # Export a daily summary from the SQLite mirror
  runlog export --mode daily --output ./daily-summary.csv
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(verbose)
	},
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

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.runlog.yaml, then ./.runlog.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
}

func configureLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".runlog")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Config file could not be read:", err)
			return
		}
		slog.Debug("no config file found, using defaults", "hint", "runlog config create")
	}
}

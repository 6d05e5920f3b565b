package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteYes bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the runlog configuration file",
	Long: `Delete the configuration file currently selected by runlog.

The Strava token file, the workout cache and the dataset are left in place.
Unless --yes is given, the deletion has to be confirmed by typing "Y".`,
	Example: `
  # Remove the config runlog is using
  runlog config delete

  # Delete config at a custom path without asking
  runlog --configFile ./custom-runlog.yaml config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return errors.New("no configuration file found")
		}

		if !configDeleteYes {
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("Delete configuration file %q?", configPath))
			if err != nil {
				return err
			}
			if !confirmed {
				return errors.New("delete aborted: not confirmed")
			}
		}

		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("error deleting configuration file: %w", err)
		}

		fmt.Printf("Configuration file successfully deleted: %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVarP(&configDeleteYes, "yes", "y", false, "Delete without the confirmation prompt")
}

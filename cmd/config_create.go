package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCreateForce bool

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a starter runlog configuration file",
	Long: `Write the starter configuration (the template "config edit" also uses) to the active config path.

An existing file is left alone unless --force is given.`,
	Example: `
  # Create default config at $HOME/.runlog.yaml
  runlog config create

  # Reset a config to the template
  runlog --configFile ./runlog.yaml config create --force
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig(os.Stdout, configCreateForce)
	},
}

func saveDefaultConfig(out io.Writer, force bool) error {
	configPath, err := resolveConfigPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	written, err := writeConfigTemplate(configPath, force)
	if err != nil {
		return err
	}

	if !written {
		fmt.Fprintf(out, "Config file already exists at: %s (use --force to overwrite)\n", configPath)
		return nil
	}

	fmt.Fprintf(out, "New config file created at: %s\n", configPath)
	fmt.Fprintln(out, "Next: set strava.client_id and strava.client_secret, then run: runlog auth login")
	return nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().BoolVar(&configCreateForce, "force", false, "Overwrite an existing config file with the template")
}

package cmd

import (
	"fmt"
	"strings"

	"runlog/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.
Secrets are masked.`,
	Example: `
  # Show active configuration
  runlog config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return nil
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded, showing defaults and environment values.")
		}

		rendered, err := renderConfigYAML(*cfg)
		if err != nil {
			return err
		}
		fmt.Println("Configuration:")
		fmt.Print(rendered)
		return nil
	},
}

func renderConfigYAML(cfg config.Config) (string, error) {
	cfg.Strava.ClientSecret = maskSecret(cfg.Strava.ClientSecret)
	cfg.AIParse.APIKey = maskSecret(cfg.AIParse.APIKey)

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(content), nil
}

// maskSecret keeps the last four characters of long values.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage runlog configuration file values.",
	Long: `Create, edit, display, and delete the runlog configuration file.

The configuration stores file locations and pipeline settings:
- paths.output / paths.cache / paths.token_file / paths.database
- strava.client_id / strava.client_secret / strava.cutoff / strava.per_page
- classify.version_tag / classify.non_interactive
- aiparse.model / aiparse.progress_file

Secrets can also come from STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET and OPENAI_API_KEY.`,
	Example: `
  # Create default config in $HOME/.runlog.yaml
  runlog config create

  # Show active config and source file
  runlog config show

  # Open active config in editor (creates example if missing)
  runlog config edit

  # Delete active config file
  runlog config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

package cmd

import "github.com/spf13/cobra"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize runlog against the Strava API.",
	Long: `Authentication helpers for the Strava OAuth flow.

Use "auth login" to grant access in a browser and save the token file.
Use "auth status" to see whether the saved token is still valid.`,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"runlog/config"
	"runlog/strava"

	"github.com/spf13/cobra"
)

var authStatusTokenFile string

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Strava token is saved and still valid.",
	Example: `
  # Check the saved token
  runlog auth status
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		tokenPath, err := resolveTokenPath(authStatusTokenFile, cfg.Paths.TokenFile)
		if err != nil {
			return err
		}
		return printTokenStatus(os.Stdout, tokenPath, time.Now())
	},
}

func printTokenStatus(out io.Writer, tokenPath string, now time.Time) error {
	token, err := strava.LoadToken(tokenPath)
	if err != nil {
		if errors.Is(err, strava.ErrNoStoredToken) {
			fmt.Fprintf(out, "No Strava token saved at %s. Run: runlog auth login\n", tokenPath)
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Token file: %s\n", tokenPath)
	switch {
	case token.ExpiresAt == 0:
		fmt.Fprintln(out, "Access token: no expiry recorded, it will be refreshed on next use")
	case token.ValidAt(now):
		fmt.Fprintf(out, "Access token: valid until %s\n", token.Expiry().Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "Access token: expired or expiring (%s), it will be refreshed on next use\n", token.Expiry().Format(time.RFC3339))
	}
	return nil
}

func init() {
	authCmd.AddCommand(authStatusCmd)

	authStatusCmd.Flags().StringVar(&authStatusTokenFile, "token-file", "", "Token file to inspect (default: paths.token_file)")
}

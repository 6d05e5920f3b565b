package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"runlog/config"
	"runlog/strava"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	authLoginTokenFile  string
	authLoginProfileDir string
	authLoginBrowserBin string
	authLoginTimeout    time.Duration
	authLoginNoBrowser  bool
	authLoginCode       string
	authLoginSkipVerify bool

	authLoginInput  io.Reader = os.Stdin
	authLoginOutput io.Writer = os.Stdout
)

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Grant Strava API access and save the token file.",
	Long: `Open a visible browser on the Strava authorization page and wait for the
redirect back to strava.redirect_url. The authorization code is exchanged for a
token pair, which is saved to the token file (mode 0600).

Without a browser, use --no-browser to print the URL and paste the redirect URL
or the code back, or pass --code directly. By default the new token is verified
by listing one activity.`,
	Example: `
  # Open browser, approve access, save the token file
  runlog auth login

  # Headless machine: print the URL and paste the redirect back
  runlog auth login --no-browser
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		creds := stravaCredentials(cfg)
		if err := creds.Validate(); err != nil {
			return fmt.Errorf("%w (or strava.client_id and strava.client_secret in the config file)", err)
		}
		tokenPath, err := resolveTokenPath(authLoginTokenFile, cfg.Paths.TokenFile)
		if err != nil {
			return err
		}

		state := uuid.NewString()
		authURL, err := strava.AuthCodeURL(creds, state)
		if err != nil {
			return err
		}
		redirectURL := strava.OAuthConfig(creds).RedirectURL

		var code string
		switch {
		case strings.TrimSpace(authLoginCode) != "":
			code, err = extractAuthorizationCode(authLoginCode)
		case authLoginNoBrowser:
			code, err = promptAuthorizationCode(authLoginInput, authLoginOutput, authURL)
		default:
			code, err = browserAuthorizationCode(cmd.Context(), authURL, redirectURL, state)
		}
		if err != nil {
			return err
		}

		exchangeCtx, exchangeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer exchangeCancel()
		token, err := strava.Exchange(exchangeCtx, creds, code)
		if err != nil {
			return err
		}
		if err := strava.SaveToken(tokenPath, token); err != nil {
			return fmt.Errorf("write token file: %w", err)
		}

		fmt.Printf("Token saved: %s (access token expires %s)\n", tokenPath, token.Expiry().Format(time.RFC3339))
		if authLoginSkipVerify {
			return nil
		}

		client, err := strava.NewClient(strava.ClientConfig{
			BaseURL: cfg.Strava.BaseURL,
			Tokens: strava.TokenFunc(func(context.Context) (string, error) {
				return token.AccessToken, nil
			}),
			UserAgent: "runlog-auth/1.0",
		})
		if err != nil {
			return err
		}

		verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer verifyCancel()

		activities, err := client.ListActivities(verifyCtx, strava.ListOptions{PerPage: 1, MaxPages: 1})
		if err != nil {
			return fmt.Errorf("auth verification failed (list activities): %w", err)
		}
		fmt.Printf("Auth verification successful. Activities visible: %d\n", len(activities))
		return nil
	},
}

func browserAuthorizationCode(parent context.Context, authURL, redirectURL, state string) (string, error) {
	if parent == nil {
		parent = context.Background()
	}
	profileDir, isTempProfile, err := resolveProfileDir(authLoginProfileDir)
	if err != nil {
		return "", err
	}
	if isTempProfile {
		defer os.RemoveAll(profileDir)
	}
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return "", fmt.Errorf("create profile directory %q: %w", profileDir, err)
	}

	allocOptions := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", false),
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("new-window", true),
		chromedp.Flag("restore-last-session", false),
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	}
	if strings.TrimSpace(authLoginBrowserBin) != "" {
		allocOptions = append(allocOptions, chromedp.ExecPath(strings.TrimSpace(authLoginBrowserBin)))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOptions...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Nothing listens on the redirect URL, so the browser ends on an error
	// page. The request itself still shows up on the network domain.
	requests := make(chan string, 32)
	chromedp.ListenTarget(ctx, func(ev any) {
		if target, ok := requestTarget(ev); ok {
			select {
			case requests <- target:
			default:
			}
		}
	})

	if err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate(authURL),
	); err != nil {
		return "", fmt.Errorf("open browser and navigate failed: %w", err)
	}

	fmt.Println("Approve access in the opened browser.")
	fmt.Printf("Waiting for the redirect to %s (timeout: %s)...\n", redirectURL, authLoginTimeout)
	waitCtx, waitCancel := context.WithTimeout(ctx, authLoginTimeout)
	defer waitCancel()

	return waitForAuthorizationCode(waitCtx, requests, browserLocation, redirectURL, state)
}

func browserLocation(ctx context.Context) (string, error) {
	var currentURL string
	err := chromedp.Run(ctx, chromedp.Location(&currentURL))
	return currentURL, err
}

func requestTarget(ev any) (string, bool) {
	event, ok := ev.(*network.EventRequestWillBeSent)
	if !ok || event.Request == nil {
		return "", false
	}
	return event.Request.URL, true
}

func waitForAuthorizationCode(ctx context.Context, requests <-chan string, location func(context.Context) (string, error), redirectURL, state string) (string, error) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastURL := ""
	for {
		if location != nil {
			if currentURL, err := location(ctx); err == nil && strings.TrimSpace(currentURL) != "" {
				lastURL = currentURL
				if code, done, err := parseAuthorizationRedirect(currentURL, redirectURL, state); done {
					return code, err
				}
			}
		}

		select {
		case target := <-requests:
			if code, done, err := parseAuthorizationRedirect(target, redirectURL, state); done {
				return code, err
			}
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf(
					"timed out waiting for the Strava redirect; approve access in the browser and retry (or increase --timeout). last URL: %s",
					lastURL,
				)
			}
			return "", fmt.Errorf("waiting for Strava authorization interrupted: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func promptAuthorizationCode(input io.Reader, output io.Writer, authURL string) (string, error) {
	fmt.Fprintln(output, "Open this URL in a browser and approve access:")
	fmt.Fprintln(output, authURL)
	fmt.Fprint(output, "Paste the redirect URL or the code: ")

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no authorization code entered")
		}
		return "", fmt.Errorf("read authorization code: %w", err)
	}
	return extractAuthorizationCode(line)
}

func init() {
	authCmd.AddCommand(authLoginCmd)

	authLoginCmd.Flags().StringVar(&authLoginTokenFile, "token-file", "", "Path to save the token file (default: paths.token_file)")
	authLoginCmd.Flags().StringVar(&authLoginProfileDir, "profile-dir", "", "Browser profile directory (optional; default is a fresh temporary profile per run)")
	authLoginCmd.Flags().StringVar(&authLoginBrowserBin, "browser-bin", "", "Optional browser binary path (Chrome/Chromium)")
	authLoginCmd.Flags().DurationVar(&authLoginTimeout, "timeout", 10*time.Minute, "Maximum wait time for the authorization redirect")
	authLoginCmd.Flags().BoolVar(&authLoginNoBrowser, "no-browser", false, "Print the authorization URL and read the redirect from stdin")
	authLoginCmd.Flags().StringVar(&authLoginCode, "code", "", "Authorization code or redirect URL obtained earlier")
	authLoginCmd.Flags().BoolVar(&authLoginSkipVerify, "skip-verify", false, "Skip the API call that verifies the new token")
}

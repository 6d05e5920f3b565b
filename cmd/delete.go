package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"runlog/config"

	"github.com/spf13/cobra"
)

var (
	deleteDBPath string
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the SQLite mirror database file",
	Long: `Destructive mirror cleanup command.

This command deletes the complete SQLite mirror, including the import history.
The JSON dataset is not touched; the next import rebuilds the mirror from it.
Nothing is removed until "Y" is typed at the prompt.`,
	Example: `
  # Delete the configured mirror (requires interactive confirmation)
  runlog delete

  # Delete a specific mirror file
  runlog delete --db ./runlog.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		dbPath, err := resolveDatabasePath(deleteDBPath, cfg.Paths.Database)
		if err != nil {
			return err
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("Delete database file %q?", dbPath))
		if err != nil {
			return err
		}
		if !confirmed {
			return errors.New("delete aborted: not confirmed")
		}

		if err := removeDatabaseFile(dbPath); err != nil {
			return err
		}
		fmt.Printf("Deleted database file: %s\n", dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "Path to the SQLite mirror (default: paths.database)")
}

// resolveDatabasePath prefers the --db flag over paths.database.
func resolveDatabasePath(flagValue, configured string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue), nil
	}
	if strings.TrimSpace(configured) != "" {
		return strings.TrimSpace(configured), nil
	}
	return "", errors.New("no SQLite mirror configured: set paths.database or pass --db")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, question string) (bool, error) {
	if input == nil {
		return false, errors.New("no input available to confirm the deletion")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "%s Type Y to confirm: ", question); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"runlog/config"
	"runlog/internal/fileutil"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active runlog config file in your editor ($VISUAL, then $EDITOR, then vi).

If no config file exists yet, it is created from the example template first.
After the editor exits the YAML is validated. On a validation error you can
edit again; declining restores the content from before the edit.`,
	Example: `
  # Edit active config
  runlog config edit

  # Edit with a specific editor
  EDITOR="code --wait" runlog config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := writeConfigTemplate(configPath, false)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		editor, err := editorCommandLine(os.Getenv)
		if err != nil {
			return err
		}
		run := func(path string) error {
			editorCommand := exec.Command(editor[0], append(editor[1:], path)...)
			editorCommand.Stdin = os.Stdin
			editorCommand.Stdout = os.Stdout
			editorCommand.Stderr = os.Stderr
			return editorCommand.Run()
		}

		if err := editConfigFile(configPath, run, os.Stdin, os.Stdout); err != nil {
			return err
		}
		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		return nil
	},
}

// resolveConfigPath prefers --configFile, then the file viper loaded, then
// $HOME/.runlog.yaml.
func resolveConfigPath(configFileFlag, configFileUsed string) (string, error) {
	for _, candidate := range []string{configFileFlag, configFileUsed} {
		if strings.TrimSpace(candidate) != "" {
			return candidate, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".runlog.yaml"), nil
}

// writeConfigTemplate writes the example config when path is missing, or
// always when overwrite is set. The file may hold API secrets, so it is
// private to the user.
func writeConfigTemplate(path string, overwrite bool) (bool, error) {
	if !overwrite {
		_, err := os.Stat(path)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("checking config file failed: %w", err)
		}
	}

	if err := fileutil.WriteFileAtomic(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("writing example config failed: %w", err)
	}
	return true, nil
}

// editorCommandLine splits $VISUAL or $EDITOR into program and arguments.
func editorCommandLine(getenv func(string) string) ([]string, error) {
	value := "vi"
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if candidate := strings.TrimSpace(getenv(name)); candidate != "" {
			value = candidate
			break
		}
	}

	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return fields, nil
}

// editConfigFile runs the editor until the file validates or the user gives
// up, in which case the content from before the first edit is written back.
func editConfigFile(path string, runEditor func(string) error, input io.Reader, output io.Writer) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config failed: %w", err)
	}
	answers := bufio.NewReader(input)

	for {
		if err := runEditor(path); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading edited config failed: %w", err)
		}
		_, validateErr := config.ValidateYAMLContent(content)
		if validateErr == nil {
			return nil
		}

		fmt.Fprintf(output, "Config validation failed: %v\n", validateErr)
		fmt.Fprint(output, "Edit again? [Y/n]: ")
		answer, readErr := answers.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if readErr == nil && (answer == "" || answer == "y" || answer == "yes") {
			continue
		}

		if err := fileutil.WriteFileAtomic(path, original, 0o600); err != nil {
			return errors.Join(validateErr, fmt.Errorf("restoring previous config failed: %w", err))
		}
		return fmt.Errorf("config validation failed in %s, previous content restored: %w", path, validateErr)
	}
}

func init() {
	configCmd.AddCommand(configEditCmd)
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"runlog/aiparse"
	"runlog/config"

	"github.com/spf13/cobra"
)

var (
	parseInput        string
	parseProgressFile string
	parseModel        string
	parseAppend       bool
	parseDataset      string
)

var (
	parsePromptInput  io.Reader = os.Stdin
	parsePromptOutput io.Writer = os.Stdout
)

var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Turn free-form lift notes into dataset records with a chat model",
	Long: `Send workout notes to an OpenAI chat model and decode the JSON it returns.

With a text argument, that text is parsed once and the JSON is printed.

With --input, the file is split on blank lines and each block is shown with a
prompt: y parses it, s skips it, n stops. Handled blocks are recorded in the
progress file, so a later run resumes where this one stopped. With --append,
the parsed records are added to the dataset file.

The API key is read from OPENAI_API_KEY or aiparse.api_key.`,
	Example: `
  # Parse one note
  runlog parse "Thursday 6:10pm: squat 5x5 @ 225, rows 3x8 @ 135"

  # Walk a notes file and append the results to the dataset
  runlog parse --input lifts.txt --append
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		completer, err := aiparse.NewOpenAICompleter(cfg.AIParse.APIKey, firstNonEmpty(parseModel, cfg.AIParse.Model))
		if err != nil {
			return err
		}
		parser := aiparse.NewParser(aiparse.LiftTemplate, completer)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if len(args) == 1 {
			if strings.TrimSpace(parseInput) != "" {
				return errors.New("pass either a text argument or --input, not both")
			}
			return parseSingle(ctx, parser, args[0], parsePromptOutput)
		}
		if strings.TrimSpace(parseInput) == "" {
			return errors.New("nothing to parse: pass a text argument or --input")
		}

		content, err := os.ReadFile(parseInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		progress, err := aiparse.LoadProgress(firstNonEmpty(parseProgressFile, cfg.AIParse.ProgressFile))
		if err != nil {
			return err
		}

		driver := &aiparse.Driver{
			Parser:   parser,
			Progress: progress,
			In:       parsePromptInput,
			Out:      parsePromptOutput,
			Logger:   slog.Default(),
		}
		result, runErr := driver.Run(ctx, aiparse.SplitBlocks(string(content)))

		// Blocks parsed before a failure are already marked done, so they
		// are appended even when the run ends with an error.
		if parseAppend && result != nil && len(result.Parsed) > 0 {
			dataset := firstNonEmpty(parseDataset, cfg.Paths.Output)
			added, err := aiparse.AppendToDataset(dataset, result.Parsed)
			if err != nil {
				return errors.Join(runErr, err)
			}
			fmt.Fprintf(parsePromptOutput, "Appended %d records to %s\n", added, dataset)
		}
		if runErr != nil {
			return runErr
		}

		printParseSummary(parsePromptOutput, result)
		return nil
	},
}

func parseSingle(ctx context.Context, parser *aiparse.Parser, text string, out io.Writer) error {
	result := parser.Parse(ctx, text)
	if result.Err != nil {
		var parseErr *aiparse.ParseError
		if errors.As(result.Err, &parseErr) {
			fmt.Fprintf(out, "Model reply was not JSON:\n%s\n", parseErr.Reply)
		}
		return result.Err
	}

	var buffer bytes.Buffer
	if err := json.Indent(&buffer, result.Value, "", "    "); err != nil {
		return err
	}
	fmt.Fprintln(out, buffer.String())
	return nil
}

func printParseSummary(out io.Writer, result *aiparse.DriverResult) {
	if result == nil {
		return
	}
	fmt.Fprintf(out, "Parse finished. Parsed: %d, Skipped: %d, Failed: %d, Already handled: %d\n",
		len(result.Parsed),
		result.Skipped,
		result.Failed,
		result.AlreadyDone,
	)
	if result.Stopped {
		fmt.Fprintln(out, "Stopped early. Run the same command again to continue.")
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseInput, "input", "i", "", "Notes file; blocks are separated by blank lines")
	parseCmd.Flags().StringVar(&parseProgressFile, "progress", "", "Progress file (default: aiparse.progress_file)")
	parseCmd.Flags().StringVar(&parseModel, "model", "", "Chat model (default: aiparse.model)")
	parseCmd.Flags().BoolVar(&parseAppend, "append", false, "Append parsed records to the dataset")
	parseCmd.Flags().StringVarP(&parseDataset, "output", "o", "", "Dataset file used with --append (default: paths.output)")
}

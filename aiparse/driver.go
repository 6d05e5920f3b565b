package aiparse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// SplitBlocks splits batch input on blank lines. Block indices are the keys
// of the progress file, so the split must stay stable between runs.
func SplitBlocks(text string) []string {
	return strings.Split(text, "\n\n")
}

type DriverResult struct {
	Parsed      []json.RawMessage
	AlreadyDone int
	Skipped     int
	Failed      int
	Stopped     bool
}

// Driver walks a batch of text blocks and asks before parsing each one.
type Driver struct {
	Parser   *Parser
	Progress *Progress
	In       io.Reader
	Out      io.Writer
	Logger   *slog.Logger
}

func (d *Driver) Run(ctx context.Context, blocks []string) (*DriverResult, error) {
	if d.Parser == nil || d.Progress == nil {
		return nil, errors.New("driver needs a parser and progress state")
	}
	reader := bufio.NewReader(d.In)
	result := &DriverResult{}

	for index, block := range blocks {
		if err := ctx.Err(); err != nil {
			return result, d.saveWith(err)
		}
		if d.Progress.IsComplete(index) {
			fmt.Fprintf(d.Out, "Skipping %d\n", index)
			result.AlreadyDone++
			continue
		}
		if strings.TrimSpace(block) == "" {
			d.logger().Debug("empty block ignored", "index", index)
			continue
		}

		fmt.Fprintf(d.Out, "Context %d: %s\n", index, block)
		fmt.Fprint(d.Out, "parse (y/n/s)> ")

		answer, err := readAnswer(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				result.Stopped = true
				return result, d.Progress.Save()
			}
			return result, d.saveWith(err)
		}

		switch answer {
		case "y":
			parsed := d.Parser.Parse(ctx, block)
			if parsed.Err != nil {
				if !IsParseError(parsed.Err) {
					return result, d.saveWith(parsed.Err)
				}
				fmt.Fprintf(d.Out, "Error: %v\n", parsed.Err)
				result.Failed++
				break
			}
			fmt.Fprintln(d.Out, indentJSON(parsed.Value))
			d.Progress.Mark(index, StatusDone)
			result.Parsed = append(result.Parsed, parsed.Value)
		case "n":
			result.Stopped = true
			return result, d.Progress.Save()
		case "s":
			d.Progress.Mark(index, StatusSkip)
			result.Skipped++
		default:
			fmt.Fprintln(d.Out, "Invalid input")
		}

		if err := d.Progress.Save(); err != nil {
			return result, err
		}
	}
	return result, d.Progress.Save()
}

// saveWith keeps the progress made so far when the run ends with err.
func (d *Driver) saveWith(err error) error {
	if saveErr := d.Progress.Save(); saveErr != nil {
		return errors.Join(err, saveErr)
	}
	return err
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func readAnswer(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && strings.TrimSpace(input) == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(input)), nil
}

func indentJSON(value json.RawMessage) string {
	var buffer bytes.Buffer
	if err := json.Indent(&buffer, value, "", "    "); err != nil {
		return string(value)
	}
	return buffer.String()
}

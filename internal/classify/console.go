package classify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"runlog/activity"
)

// Console runs the workout dialog on a terminal.
type Console struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{reader: bufio.NewReader(in), out: out}
}

func (c *Console) Decide(ctx context.Context, candidate Candidate) (Decision, error) {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Strava ID:    %d\n", candidate.ID)
	fmt.Fprintf(c.out, "Title:        %s\n", candidate.Title)
	fmt.Fprintf(c.out, "Description:  %s\n", candidate.Description)
	fmt.Fprintf(c.out, "Private note: %s\n", candidate.PrivateNote)

	for {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}

		fmt.Fprintln(c.out, "Was this a workout?")
		fmt.Fprintln(c.out, "  (y) Yes, enter intervals")
		fmt.Fprintln(c.out, "  (n) No, never ask again")
		fmt.Fprintln(c.out, "  (s) Skip for now")
		fmt.Fprintln(c.out, "  (f) Finish, stop asking for this run")
		fmt.Fprint(c.out, "Enter choice: ")

		input, err := c.readLine("workout choice")
		if err != nil {
			return Decision{}, err
		}

		switch strings.ToLower(input) {
		case "y":
			return c.enterIntervals(ctx)
		case "n":
			return NotWorkout(), nil
		case "s":
			return Skip(), nil
		case "f":
			return Finish(), nil
		default:
			fmt.Fprintln(c.out, "Invalid choice. Please enter y, n, s or f.")
		}
	}
}

func (c *Console) enterIntervals(ctx context.Context) (Decision, error) {
	for {
		intervals := activity.Intervals{}
		fmt.Fprintln(c.out, "Enter intervals as distance,time. Empty line to finish.")
		for {
			if err := ctx.Err(); err != nil {
				return Decision{}, err
			}
			fmt.Fprintf(c.out, "  interval %d: ", len(intervals)+1)
			line, err := c.readLine("interval")
			if err != nil {
				return Decision{}, err
			}
			if line == "" {
				break
			}
			interval, ok := parseInterval(line)
			if !ok {
				fmt.Fprintln(c.out, "Invalid interval. Use distance,time (for example 800m,2:55).")
				continue
			}
			intervals = append(intervals, interval)
		}

		fmt.Fprintf(c.out, "Entered %d intervals:\n", len(intervals))
		for i, interval := range intervals {
			fmt.Fprintf(c.out, "  [%d] %s in %s\n", i+1, interval.Distance, interval.Time)
		}

		confirmed, err := c.confirm()
		if err != nil {
			return Decision{}, err
		}
		switch confirmed {
		case "yes":
			return Accept(intervals), nil
		case "cancel":
			return Cancel(), nil
		}
	}
}

func (c *Console) confirm() (string, error) {
	for {
		fmt.Fprint(c.out, "Save these intervals? (yes/no/cancel): ")
		input, err := c.readLine("confirmation")
		if err != nil {
			return "", err
		}
		switch answer := strings.ToLower(input); answer {
		case "yes", "no", "cancel":
			return answer, nil
		default:
			fmt.Fprintln(c.out, "Invalid answer. Please enter yes, no or cancel.")
		}
	}
}

func (c *Console) readLine(label string) (string, error) {
	input, err := c.reader.ReadString('\n')
	if err != nil && strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(input), nil
}

func parseInterval(line string) (activity.Interval, bool) {
	distance, duration, found := strings.Cut(line, ",")
	if !found {
		return activity.Interval{}, false
	}
	distance = strings.TrimSpace(distance)
	duration = strings.TrimSpace(duration)
	if distance == "" || duration == "" {
		return activity.Interval{}, false
	}
	return activity.Interval{Distance: distance, Time: duration}, true
}

package classify

import (
	"context"
	"errors"

	"runlog/activity"
)

type DecisionKind int

const (
	DecisionSkip DecisionKind = iota
	DecisionNotWorkout
	DecisionFinish
	DecisionAccept
	// DecisionCancel is an aborted interval entry. It behaves like DecisionSkip.
	DecisionCancel
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionSkip:
		return "skip"
	case DecisionNotWorkout:
		return "not-workout"
	case DecisionFinish:
		return "finish"
	case DecisionAccept:
		return "accept"
	case DecisionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

type Decision struct {
	Kind      DecisionKind
	Intervals activity.Intervals
}

func NotWorkout() Decision { return Decision{Kind: DecisionNotWorkout} }
func Skip() Decision       { return Decision{Kind: DecisionSkip} }
func Finish() Decision     { return Decision{Kind: DecisionFinish} }
func Cancel() Decision     { return Decision{Kind: DecisionCancel} }

func Accept(intervals activity.Intervals) Decision {
	return Decision{Kind: DecisionAccept, Intervals: intervals}
}

// Decider asks the operator what to do with a run that may be a workout.
type Decider interface {
	Decide(ctx context.Context, candidate Candidate) (Decision, error)
}

type DeciderFunc func(ctx context.Context, candidate Candidate) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, candidate Candidate) (Decision, error) {
	return f(ctx, candidate)
}

var ErrNoScriptedDecision = errors.New("no scripted decision left")

// Scripted replays a fixed list of decisions and records every candidate it was asked about.
type Scripted struct {
	Decisions []Decision
	Asked     []Candidate
}

func (s *Scripted) Decide(_ context.Context, candidate Candidate) (Decision, error) {
	s.Asked = append(s.Asked, candidate)
	if len(s.Decisions) == 0 {
		return Decision{}, ErrNoScriptedDecision
	}
	next := s.Decisions[0]
	s.Decisions = s.Decisions[1:]
	return next, nil
}

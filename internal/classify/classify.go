package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"runlog/activity"
)

// DefaultVersionTag is the cache tag decisions are stored under. Bumping it
// makes every earlier decision stale and forces re-classification.
const DefaultVersionTag = "v1"

var workoutKeywords = []string{"workout", "strides", "tempo", "x(", "race", "mile", "4x4", "800m"}

// CouldBeWorkout reports whether a run looks like a structured session.
func CouldBeWorkout(title, description, privateNote string) bool {
	if strings.TrimSpace(privateNote) != "" {
		return true
	}
	text := strings.ToLower(description + privateNote + title)
	for _, keyword := range workoutKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Candidate is the run shown to the operator.
type Candidate struct {
	ID          int64
	Title       string
	Description string
	PrivateNote string
}

// Session carries state scoped to one import run. NonInteractive suppresses
// every further prompt once set and is never persisted.
type Session struct {
	NonInteractive bool
}

type Store interface {
	Contains(key any, version string) bool
	GetIntervals(key any) (activity.Intervals, bool, error)
	Set(key any, version string, value any) error
}

type Classifier struct {
	Store      Store
	Decider    Decider
	Session    *Session
	VersionTag string
	Logger     *slog.Logger
}

func New(store Store, decider Decider, session *Session, versionTag string) *Classifier {
	if session == nil {
		session = &Session{}
	}
	if strings.TrimSpace(versionTag) == "" {
		versionTag = DefaultVersionTag
	}
	return &Classifier{
		Store:      store,
		Decider:    decider,
		Session:    session,
		VersionTag: versionTag,
		Logger:     slog.Default(),
	}
}

// Classify returns the intervals to attach to the run, or nil when the run
// carries none. A cached decision is applied even when the run is not flagged.
func (c *Classifier) Classify(ctx context.Context, candidate Candidate) (activity.Intervals, error) {
	if c.shouldPrompt(candidate) {
		if err := c.decide(ctx, candidate); err != nil {
			return nil, err
		}
	}

	if !c.Store.Contains(candidate.ID, c.VersionTag) {
		return nil, nil
	}
	intervals, ok, err := c.Store.GetIntervals(candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("read cached intervals for %d: %w", candidate.ID, err)
	}
	if !ok {
		return nil, nil
	}
	return intervals, nil
}

func (c *Classifier) shouldPrompt(candidate Candidate) bool {
	if c.Decider == nil || c.nonInteractive() {
		return false
	}
	if !CouldBeWorkout(candidate.Title, candidate.Description, candidate.PrivateNote) {
		return false
	}
	return !c.Store.Contains(candidate.ID, c.VersionTag)
}

func (c *Classifier) nonInteractive() bool {
	return c.Session != nil && c.Session.NonInteractive
}

func (c *Classifier) decide(ctx context.Context, candidate Candidate) error {
	decision, err := c.Decider.Decide(ctx, candidate)
	if err != nil {
		return fmt.Errorf("classify activity %d: %w", candidate.ID, err)
	}

	c.logger().Debug("workout decision", "strava_id", candidate.ID, "decision", decision.Kind.String())

	switch decision.Kind {
	case DecisionNotWorkout:
		return c.Store.Set(candidate.ID, c.VersionTag, nil)
	case DecisionAccept:
		intervals := decision.Intervals
		if intervals == nil {
			intervals = activity.Intervals{}
		}
		return c.Store.Set(candidate.ID, c.VersionTag, intervals)
	case DecisionFinish:
		if c.Session == nil {
			c.Session = &Session{}
		}
		c.Session.NonInteractive = true
		return nil
	case DecisionSkip, DecisionCancel:
		return nil
	default:
		return fmt.Errorf("classify activity %d: unsupported decision %d", candidate.ID, decision.Kind)
	}
}

func (c *Classifier) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

package aiparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"runlog/internal/fileutil"
)

type Status string

const (
	StatusDone Status = "done"
	StatusSkip Status = "skip"
)

// Progress remembers which blocks of a batch were handled, keyed by index.
type Progress struct {
	path  string
	state map[string]Status
}

func LoadProgress(path string) (*Progress, error) {
	p := &Progress{path: path, state: map[string]Status{}}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress %s: %w", path, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(content, &p.state); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", path, err)
	}
	if p.state == nil {
		p.state = map[string]Status{}
	}
	return p, nil
}

// IsComplete is true for blocks marked done or skip.
func (p *Progress) IsComplete(index int) bool {
	switch p.state[strconv.Itoa(index)] {
	case StatusDone, StatusSkip:
		return true
	default:
		return false
	}
}

func (p *Progress) Status(index int) (Status, bool) {
	status, ok := p.state[strconv.Itoa(index)]
	return status, ok
}

func (p *Progress) Mark(index int, status Status) {
	p.state[strconv.Itoa(index)] = status
}

func (p *Progress) Len() int {
	return len(p.state)
}

func (p *Progress) Save() error {
	content, err := json.Marshal(p.state)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := fileutil.WriteFileAtomic(p.path, content, 0o644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

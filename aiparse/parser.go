package aiparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseError reports a reply that was not valid JSON after removing fences.
type ParseError struct {
	Message string
	Reply   string
}

func (e *ParseError) Error() string {
	return "decode model reply: " + e.Message
}

// Result carries either the decoded JSON value or the error that prevented it.
type Result struct {
	Value json.RawMessage
	Err   error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Parser struct {
	Template  Template
	Completer Completer
}

func NewParser(template Template, completer Completer) *Parser {
	return &Parser{Template: template, Completer: completer}
}

// Parse makes exactly one completion call. Failures are reported in the
// Result instead of being returned, so a batch can move on to the next item.
func (p *Parser) Parse(ctx context.Context, text string) Result {
	if p.Completer == nil {
		return Result{Err: errors.New("no completer configured")}
	}

	prompt := text
	if p.Template != nil {
		prompt = p.Template.Render(text)
	}

	reply, err := p.Completer.Complete(ctx, prompt)
	if err != nil {
		return Result{Err: err}
	}
	return Decode(reply)
}

// Decode strips code fences from reply and decodes it.
func Decode(reply string) Result {
	cleaned := StripFences(reply)

	var value json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return Result{Err: &ParseError{Message: err.Error(), Reply: reply}}
	}
	return Result{Value: value}
}

// StripFences removes every ```json and ``` marker and surrounding space.
func StripFences(reply string) string {
	cleaned := strings.ReplaceAll(reply, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("error: %v", r.Err)
	}
	return string(r.Value)
}

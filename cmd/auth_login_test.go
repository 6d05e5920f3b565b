package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func TestRequestTarget(t *testing.T) {
	t.Parallel()

	target, ok := requestTarget(&network.EventRequestWillBeSent{
		Request: &network.Request{URL: "http://localhost:8080/callback?code=abc"},
	})
	if !ok || target != "http://localhost:8080/callback?code=abc" {
		t.Fatalf("expected request url, got %q (%t)", target, ok)
	}

	if _, ok := requestTarget(&network.EventLoadingFinished{}); ok {
		t.Fatalf("did not expect other events to yield a target")
	}
}

func TestWaitForAuthorizationCodeFromRequests(t *testing.T) {
	t.Parallel()

	requests := make(chan string, 2)
	requests <- "https://www.strava.com/oauth/accept_application"
	requests <- "http://localhost:8080/callback?state=s1&code=abc"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := waitForAuthorizationCode(ctx, requests, nil, "http://localhost:8080/callback", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "abc" {
		t.Fatalf("expected code abc, got %q", code)
	}
}

func TestWaitForAuthorizationCodeFromLocation(t *testing.T) {
	t.Parallel()

	location := func(context.Context) (string, error) {
		return "http://localhost:8080/callback?state=s1&code=xyz", nil
	}
	code, err := waitForAuthorizationCode(context.Background(), nil, location, "http://localhost:8080/callback", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "xyz" {
		t.Fatalf("expected code xyz, got %q", code)
	}
}

func TestWaitForAuthorizationCodeTimesOut(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := waitForAuthorizationCode(ctx, make(chan string), nil, "http://localhost:8080/callback", "s1")
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestPromptAuthorizationCode(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	code, err := promptAuthorizationCode(strings.NewReader("http://localhost:8080/callback?code=pasted\n"), out, "https://www.strava.com/oauth/authorize?x=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "pasted" {
		t.Fatalf("expected pasted code, got %q", code)
	}
	if !strings.Contains(out.String(), "https://www.strava.com/oauth/authorize?x=1") {
		t.Fatalf("expected authorization url in output, got %q", out.String())
	}

	if _, err := promptAuthorizationCode(strings.NewReader(""), &bytes.Buffer{}, "u"); err == nil {
		t.Fatalf("expected error on empty input")
	}
}

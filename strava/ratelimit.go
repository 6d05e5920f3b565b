package strava

import (
	"context"
	"log/slog"
	"time"
)

const (
	ShortWindow = 15 * time.Minute
	ShortLimit  = 100
	DailyWindow = 24 * time.Hour
	DailyLimit  = 1000
)

// RateLimiter tracks request timestamps over the two Strava windows. Hitting
// the short window waits, hitting the daily window fails.
type RateLimiter struct {
	Now    func() time.Time
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger

	short []time.Time
	daily []time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{Now: time.Now, Sleep: sleepContext, Logger: slog.Default()}
}

// Wait blocks until another request fits the short window.
func (l *RateLimiter) Wait(ctx context.Context) error {
	now := l.now()
	l.prune(now)

	if len(l.daily) >= DailyLimit {
		return ErrDailyRateLimit
	}
	if len(l.short) >= ShortLimit {
		wait := ShortWindow - now.Sub(l.short[0])
		if wait > 0 {
			l.logger().Info("rate limit approaching, waiting", "wait", wait.Round(time.Second))
			return l.Pause(ctx, wait)
		}
	}
	return nil
}

// Record counts a request that was sent.
func (l *RateLimiter) Record() {
	now := l.now()
	l.short = append(l.short, now)
	l.daily = append(l.daily, now)
}

func (l *RateLimiter) Pause(ctx context.Context, d time.Duration) error {
	if l.Sleep == nil {
		return sleepContext(ctx, d)
	}
	return l.Sleep(ctx, d)
}

func (l *RateLimiter) prune(now time.Time) {
	l.short = dropBefore(l.short, now.Add(-ShortWindow))
	l.daily = dropBefore(l.daily, now.Add(-DailyWindow))
}

func dropBefore(values []time.Time, cutoff time.Time) []time.Time {
	index := 0
	for index < len(values) && !values[index].After(cutoff) {
		index++
	}
	return values[index:]
}

func (l *RateLimiter) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *RateLimiter) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package schedule aligns relay ticks to wall-clock period boundaries so
// polls land at predictable times (e.g. every 5 minutes at second 5)
// regardless of when the process started.
package schedule

import (
	"context"
	"time"
)

// NextTick computes the next boundary of the base period plus offset,
// measured on Unix time. If now falls before the current period's offset,
// the current period's offset is the next tick; otherwise it is the next
// period's.
func NextTick(now time.Time, base, offset time.Duration) time.Time {
	baseSecs := int64(base / time.Second)
	if baseSecs <= 0 {
		baseSecs = 1
	}
	periodStart := time.Unix((now.Unix()/baseSecs)*baseSecs, 0)
	if first := periodStart.Add(offset); now.Before(first) {
		return first
	}
	return periodStart.Add(base + offset)
}

// Aligner sleeps until the next aligned tick.
type Aligner struct {
	Base   time.Duration
	Offset time.Duration
}

// Wait blocks until the next tick boundary or until ctx is done.
func (a Aligner) Wait(ctx context.Context) error {
	d := time.Until(NextTick(time.Now(), a.Base, a.Offset))
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

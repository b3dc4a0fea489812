package animation

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/utils"
)

const (
	CounterDuration = 400 * time.Millisecond
	FrameInterval   = 16 * time.Millisecond
)

var ErrSuperseded = errors.New("animation superseded by a newer render")

// Value is the counter reading after elapsed time: round(min(elapsed/d, 1) * final).
// done is true on the frame where the fraction reaches 1.
func Value(elapsed time.Duration, final int) (value int, done bool) {
	return ValueOver(elapsed, CounterDuration, final)
}

func ValueOver(elapsed, duration time.Duration, final int) (int, bool) {
	fraction := 1.0
	if duration > 0 {
		fraction = utils.Clamp(float64(elapsed)/float64(duration), 0, 1)
	}
	return utils.RoundHalfUp(utils.Lerp(0, float64(final), fraction)), fraction >= 1
}

// Token reports whether the render that started an animation is still the latest.
type Token interface {
	Current() bool
}

type TokenFunc func() bool

func (f TokenFunc) Current() bool { return f() }

// Generation hands out tokens; each call to Next supersedes all earlier tokens.
type Generation struct {
	n atomic.Int64
}

func (g *Generation) Next() Token {
	mine := g.n.Add(1)
	return TokenFunc(func() bool { return g.n.Load() == mine })
}

// FrameSource starts a frame clock and returns its channel and a stop func.
type FrameSource func() (<-chan time.Time, func())

// Ticker is the default frame clock.
func Ticker(interval time.Duration) FrameSource {
	return func() (<-chan time.Time, func()) {
		t := time.NewTicker(interval)
		return t.C, t.Stop
	}
}

// Counter animates an integer from 0 to Final.
type Counter struct {
	Final    int
	Symbol   string
	Duration time.Duration
	Frames   FrameSource
}

func NewCounter(final int, symbol string) *Counter {
	return &Counter{
		Final:    final,
		Symbol:   symbol,
		Duration: CounterDuration,
		Frames:   Ticker(FrameInterval),
	}
}

// Run writes one label per frame to sink until the counter settles. It checks
// tok before every frame and returns ErrSuperseded without writing once the
// token is stale.
func (c *Counter) Run(ctx context.Context, tok Token, sink func(label string)) error {
	frames, stop := c.Frames()
	defer stop()

	var start time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-frames:
			if tok != nil && !tok.Current() {
				return ErrSuperseded
			}
			if start.IsZero() {
				start = ts
			}
			v, done := ValueOver(ts.Sub(start), c.Duration, c.Final)
			sink(strconv.Itoa(v) + c.Symbol)
			if done {
				return nil
			}
		}
	}
}

package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/animation"
	"github.com/fakhrymubarak/weather-widget/internal/model"
)

const (
	eraseLine   = "\r\033[2K"
	iconIdle    = "🔍"
	iconLoading = "⏳"
)

var particleGlyphs = map[model.ParticleKind]string{
	model.ParticleCloud: "☁️",
	model.ParticleRain:  "💧",
	model.ParticleSnow:  "❄️",
	model.ParticleStar:  "✨",
}

// TerminalRenderer draws the widget as plain lines. The temperature line is
// written last so the counter can redraw it in place.
type TerminalRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	loading  bool
	Frames   animation.FrameSource
	Duration time.Duration
}

func NewTerminalRenderer(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{
		out:      out,
		Frames:   animation.Ticker(animation.FrameInterval),
		Duration: animation.CounterDuration,
	}
}

func (t *TerminalRenderer) Prompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s city> ", iconIdle)
}

// Loading shows the busy line; it is erased by the next Render or Error.
func (t *TerminalRenderer) Loading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = true
	fmt.Fprintf(t.out, "%s %s", iconLoading, MsgLoading)
}

func (t *TerminalRenderer) clearLoading() {
	if t.loading {
		fmt.Fprint(t.out, eraseLine)
		t.loading = false
	}
}

func (t *TerminalRenderer) Alert(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLoading()
	fmt.Fprintf(t.out, "! %s\n", msg)
}

func (t *TerminalRenderer) Error(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLoading()
	fmt.Fprintln(t.out, msg)
}

func (t *TerminalRenderer) Info(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, msg)
}

// Render draws v and runs the temperature counter until it settles, the
// token goes stale or ctx ends.
func (t *TerminalRenderer) Render(ctx context.Context, v *View, tok animation.Token) error {
	t.mu.Lock()
	t.clearLoading()
	theme := "day"
	if !v.Display.IsDaytime {
		theme = "night"
	}
	cached := ""
	if v.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(t.out, "%s  ·  %s  ·  %s%s\n", v.City, v.LocalTimeLabel, theme, cached)
	fmt.Fprintf(t.out, "%s  %s\n", v.Description, v.IconURL)
	fmt.Fprintf(t.out, "Wind Speed  %s %s\n", v.Display.WindIcon, v.Display.FormattedWind)
	fmt.Fprintf(t.out, "Units  %s\n", unitLine(v.UnitOptions))
	fmt.Fprint(t.out, eraseLine+effectLine(v.Particles)+"\n")
	fmt.Fprintf(t.out, "%d%s", v.CounterStart, v.Display.TempSymbol)
	t.mu.Unlock()

	counter := &animation.Counter{
		Final:    v.Display.Temperature,
		Symbol:   v.Display.TempSymbol,
		Duration: t.Duration,
		Frames:   t.Frames,
	}
	err := counter.Run(ctx, tok, func(label string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		fmt.Fprint(t.out, eraseLine+label)
	})

	t.mu.Lock()
	fmt.Fprintln(t.out)
	t.mu.Unlock()
	return err
}

func unitLine(opts []UnitOption) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		if o.Selected {
			parts = append(parts, "["+o.Label+"]")
		} else {
			parts = append(parts, o.Label)
		}
	}
	return strings.Join(parts, " ")
}

func effectLine(ps []model.Particle) string {
	counts := CountParticles(ps)
	var parts []string
	for _, k := range []model.ParticleKind{model.ParticleCloud, model.ParticleRain, model.ParticleSnow, model.ParticleStar} {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s×%d", particleGlyphs[k], n))
		}
	}
	return strings.Join(parts, " ")
}

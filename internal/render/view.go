package render

import (
	"math/rand"

	"github.com/fakhrymubarak/weather-widget/internal/model"
)

const (
	MsgEnterCity    = "Please enter a city name."
	MsgNotFound     = "❌ City not found. Try another name."
	MsgLoading      = "Loading..."
	MsgUnknownUnits = "Please choose °C, °F or K."

	LocalTimePrefix = "Local time • "

	cloudCount = 1
	rainCount  = 30
	snowCount  = 20
	starCount  = 50
)

// UnitOption is one entry of the unit selector.
type UnitOption struct {
	Value    model.UnitSystem `json:"value"`
	Label    string           `json:"label"`
	Selected bool             `json:"selected"`
}

// View is a fully assembled widget, shared by the HTML page, the JSON API
// and the terminal client.
type View struct {
	Generation     int64              `json:"generation"`
	City           string             `json:"city"`
	LocalTimeLabel string             `json:"local_time_label"`
	IconURL        string             `json:"icon_url"`
	Description    string             `json:"description"`
	CounterStart   int                `json:"counter_start"`
	Display        model.DisplayState `json:"display"`
	Units          model.UnitSystem   `json:"units"`
	UnitOptions    []UnitOption       `json:"unit_options"`
	Particles      []model.Particle   `json:"particles"`
	Cached         bool               `json:"cached"`
}

// BuildView assembles a view. Every call builds its own particle slice.
// rnd may be nil, in which case math/rand is used.
func BuildView(r *model.WeatherReading, state model.DisplayState, unit model.UnitSystem, rnd func() float64) *View {
	return &View{
		City:           r.City,
		LocalTimeLabel: LocalTimePrefix + state.LocalTime,
		IconURL:        state.IconURL,
		Description:    r.ConditionDescription,
		CounterStart:   0,
		Display:        state,
		Units:          unit,
		UnitOptions:    UnitOptions(unit),
		Particles:      Particles(r.ConditionMain, state.IsDaytime, rnd),
		Cached:         r.Cached,
	}
}

func UnitOptions(active model.UnitSystem) []UnitOption {
	all := model.UnitSystems()
	opts := make([]UnitOption, 0, len(all))
	for _, u := range all {
		opts = append(opts, UnitOption{Value: u, Label: u.Symbol(), Selected: u == active})
	}
	return opts
}

// Particles lists the decorative overlay for a condition. Night adds stars
// on top of whatever the condition spawns.
func Particles(condition string, isDaytime bool, rnd func() float64) []model.Particle {
	if rnd == nil {
		rnd = rand.Float64
	}
	var ps []model.Particle
	switch condition {
	case "Clouds":
		for i := 1; i <= cloudCount; i++ {
			ps = append(ps, model.Particle{Kind: model.ParticleCloud})
		}
	case "Rain":
		for i := 1; i <= rainCount; i++ {
			ps = append(ps, model.Particle{Kind: model.ParticleRain, Index: i})
		}
	case "Snow":
		for i := 1; i <= snowCount; i++ {
			ps = append(ps, model.Particle{Kind: model.ParticleSnow, Index: i})
		}
	}
	if !isDaytime {
		for i := 1; i <= starCount; i++ {
			ps = append(ps, model.Particle{Kind: model.ParticleStar, X: rnd(), Y: rnd()})
		}
	}
	return ps
}

// CountParticles tallies particles per kind.
func CountParticles(ps []model.Particle) map[model.ParticleKind]int {
	counts := make(map[model.ParticleKind]int)
	for _, p := range ps {
		counts[p.Kind]++
	}
	return counts
}

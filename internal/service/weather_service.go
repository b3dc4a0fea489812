package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/animation"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/metrics"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/presenter"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/session"
	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrSuperseded = errors.New("lookup superseded by a newer one")
)

// WeatherServiceInterface is what the HTTP handler and the terminal client drive.
type WeatherServiceInterface interface {
	Lookup(ctx context.Context, sessionID, rawCity string) (*render.View, error)
	SwitchUnits(ctx context.Context, sessionID, rawUnits string) (*render.View, error)
	SetUnits(ctx context.Context, sessionID, rawUnits string) (model.UnitSystem, error)
	State(ctx context.Context, sessionID string) (session.State, error)
	Token(ctx context.Context, sessionID string, generation int64) animation.Token
}

// WeatherService owns the lookup flow: validate, fetch, present, build the view.
type WeatherService struct {
	repo         repository.WeatherRepository
	sessions     session.Store
	presenter    *presenter.Presenter
	validate     *validator.Validate
	defaultUnits model.UnitSystem
	rnd          func() float64
}

type Option func(*WeatherService)

func WithPresenter(p *presenter.Presenter) Option {
	return func(s *WeatherService) { s.presenter = p }
}

func WithDefaultUnits(u model.UnitSystem) Option {
	return func(s *WeatherService) { s.defaultUnits = u }
}

// WithRandom fixes the source of star positions.
func WithRandom(rnd func() float64) Option {
	return func(s *WeatherService) { s.rnd = rnd }
}

// NewWeatherService wires a service; nil arguments fall back to the
// configured repository and an in-memory session store.
func NewWeatherService(repo repository.WeatherRepository, store session.Store, opts ...Option) *WeatherService {
	if repo == nil {
		repo = repository.NewWeatherRepository()
	}
	if store == nil {
		store = session.NewMemoryStore()
	}
	units := DefaultUnits()
	s := &WeatherService{
		repo:         repo,
		sessions:     store,
		presenter:    presenter.New(config.GetIconUrlBase()),
		validate:     validator.New(),
		defaultUnits: units,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultUnits is the configured widget.default_units, or metric when that
// value is not a known unit system.
func DefaultUnits() model.UnitSystem {
	units, err := model.ParseUnitSystem(config.GetDefaultUnits())
	if err != nil {
		config.GetLogger().Warnw("Invalid default units in config, using metric", "error", err)
		return model.Metric
	}
	return units
}

// NormalizeCity trims input and rejects an empty result.
func NormalizeCity(raw string) (string, error) {
	city := strings.TrimSpace(raw)
	if city == "" {
		return "", fmt.Errorf("%w: city is empty", ErrValidation)
	}
	return city, nil
}

// State returns the session's state, or a fresh one with the default units.
func (s *WeatherService) State(ctx context.Context, sessionID string) (session.State, error) {
	st, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, session.ErrNoSession) {
		return session.State{Units: s.defaultUnits}, nil
	}
	if err != nil {
		return session.State{}, err
	}
	if st.Units == "" {
		st.Units = s.defaultUnits
	}
	return st, nil
}

// Lookup fetches and renders the weather for rawCity in the session's units.
// It returns ErrSuperseded when another lookup for the same session started
// while this one was waiting on the upstream.
func (s *WeatherService) Lookup(ctx context.Context, sessionID, rawCity string) (*render.View, error) {
	start := time.Now()
	city, err := NormalizeCity(rawCity)
	if err != nil {
		metrics.ObserveLookup(metrics.OutcomeInvalid, "", time.Since(start))
		return nil, err
	}

	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q := model.Query{City: city, Units: st.Units}
	if err := s.validate.Struct(q); err != nil {
		metrics.ObserveLookup(metrics.OutcomeInvalid, string(q.Units), time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	gen, err := s.sessions.NextGeneration(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st.City = city
	if err := s.sessions.Save(ctx, sessionID, st); err != nil {
		return nil, err
	}

	reading, fetchErr := s.repo.FetchWeather(ctx, q)

	if !s.isCurrent(ctx, sessionID, gen) {
		metrics.ObserveLookup(metrics.OutcomeSuperseded, string(q.Units), time.Since(start))
		return nil, ErrSuperseded
	}
	if fetchErr != nil {
		metrics.ObserveLookup(metrics.OutcomeNotFound, string(q.Units), time.Since(start))
		return nil, fetchErr
	}

	state := s.presenter.Present(reading, q.Units)
	view := render.BuildView(reading, state, q.Units, s.rnd)
	view.Generation = gen

	outcome := metrics.OutcomeSuccess
	if reading.Cached {
		outcome = metrics.OutcomeCached
	}
	metrics.ObserveLookup(outcome, string(q.Units), time.Since(start))
	return view, nil
}

// SetUnits stores a new active unit system without triggering a lookup.
func (s *WeatherService) SetUnits(ctx context.Context, sessionID, rawUnits string) (model.UnitSystem, error) {
	units, err := model.ParseUnitSystem(rawUnits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return "", err
	}
	st.Units = units
	if err := s.sessions.Save(ctx, sessionID, st); err != nil {
		return "", err
	}
	return units, nil
}

// SwitchUnits changes the active unit system and re-runs the lookup for the
// session's last city.
func (s *WeatherService) SwitchUnits(ctx context.Context, sessionID, rawUnits string) (*render.View, error) {
	if _, err := s.SetUnits(ctx, sessionID, rawUnits); err != nil {
		return nil, err
	}
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Lookup(ctx, sessionID, st.City)
}

// Token is valid while generation is still the session's latest lookup.
func (s *WeatherService) Token(ctx context.Context, sessionID string, generation int64) animation.Token {
	return animation.TokenFunc(func() bool { return s.isCurrent(ctx, sessionID, generation) })
}

func (s *WeatherService) isCurrent(ctx context.Context, sessionID string, gen int64) bool {
	cur, err := s.sessions.Generation(ctx, sessionID)
	if err != nil {
		config.GetLogger().Warnw("Failed to read lookup generation", "session", sessionID, "error", err)
		return false
	}
	return cur == gen
}

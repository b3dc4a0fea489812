package service

import (
	"context"
	"sync"
	"testing"

	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock repository for testing
type mockWeatherRepository struct {
	mu       sync.Mutex
	queries  []model.Query
	fetch    func(ctx context.Context, q model.Query) (*model.WeatherReading, error)
	mockData *model.WeatherReading
	err      error
}

func (m *mockWeatherRepository) FetchWeather(ctx context.Context, q model.Query) (*model.WeatherReading, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.fetch != nil {
		return m.fetch(ctx, q)
	}
	if m.err != nil {
		return nil, m.err
	}
	r := *m.mockData
	r.Units = q.Units
	return &r, nil
}

func (m *mockWeatherRepository) calls() []model.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Query(nil), m.queries...)
}

func londonRain(dt int64) *model.WeatherReading {
	return &model.WeatherReading{
		City:                 "London",
		ConditionMain:        "Rain",
		ConditionDescription: "light rain",
		IconCode:             "10d",
		Temperature:          15.7,
		WindSpeed:            5,
		Sunrise:              1700000000,
		Sunset:               1700030000,
		ObservedAt:           dt,
	}
}

func newTestService(repo repository.WeatherRepository) (*WeatherService, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return NewWeatherService(repo, store, WithRandom(func() float64 { return 0.5 })), store
}

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"London", "London", false},
		{"  New York \t", "New York", false},
		{"", "", true},
		{"   ", "", true},
		{"\n\t", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeCity(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrValidation, "%q", tt.raw)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLookup_LondonDay(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, store := newTestService(repo)

	view, err := svc.Lookup(context.Background(), "s1", "  London ")
	require.NoError(t, err)

	assert.Equal(t, []model.Query{{City: "London", Units: model.Metric}}, repo.calls())
	assert.Equal(t, int64(1), view.Generation)
	assert.Equal(t, "London", view.City)
	assert.Equal(t, "16°C", view.Display.FormattedTemp)
	assert.Equal(t, "18.0 km/h", view.Display.FormattedWind)
	assert.False(t, view.Display.WindIsFast)
	assert.True(t, view.Display.IsDaytime)
	assert.Equal(t, "linear-gradient(to top, #89f7fe, #66a6ff)", view.Display.BackgroundGradient)
	assert.Equal(t, map[model.ParticleKind]int{model.ParticleRain: 30}, render.CountParticles(view.Particles))

	st, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, session.State{City: "London", Units: model.Metric}, st)
}

func TestLookup_LondonNight(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700040000)}
	svc, _ := newTestService(repo)

	view, err := svc.Lookup(context.Background(), "s1", "London")
	require.NoError(t, err)

	assert.False(t, view.Display.IsDaytime)
	assert.Equal(t, "linear-gradient(to top, #1f1c2c, #928dab)", view.Display.BackgroundGradient)
	assert.Equal(t, map[model.ParticleKind]int{model.ParticleRain: 30, model.ParticleStar: 50}, render.CountParticles(view.Particles))
}

func TestLookup_EmptyCityMakesNoRequest(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, store := newTestService(repo)

	_, err := svc.Lookup(context.Background(), "s1", "   ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.calls())

	gen, _ := store.Generation(context.Background(), "s1")
	assert.Zero(t, gen)
}

func TestLookup_RepositoryError(t *testing.T) {
	repo := &mockWeatherRepository{err: repository.ErrLocationNotFound}
	svc, store := newTestService(repo)

	view, err := svc.Lookup(context.Background(), "s1", "Atlantis")
	assert.Nil(t, view)
	assert.ErrorIs(t, err, repository.ErrLocationNotFound)

	st, _ := store.Load(context.Background(), "s1")
	assert.Equal(t, "Atlantis", st.City)
}

func TestLookup_Superseded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	repo := &mockWeatherRepository{}
	repo.fetch = func(ctx context.Context, q model.Query) (*model.WeatherReading, error) {
		r := londonRain(1700010000)
		r.City = q.City
		if q.City == "Paris" {
			close(started)
			<-release
		}
		return r, nil
	}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	var slowErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, slowErr = svc.Lookup(ctx, "s1", "Paris")
	}()

	<-started
	fast, err := svc.Lookup(ctx, "s1", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", fast.City)
	assert.Equal(t, int64(2), fast.Generation)

	close(release)
	<-done
	assert.ErrorIs(t, slowErr, ErrSuperseded)
}

func TestLookup_SessionsAreIndependent(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Lookup(ctx, "a", "London")
	require.NoError(t, err)
	b, err := svc.Lookup(ctx, "b", "London")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Generation)
	assert.Equal(t, int64(1), b.Generation)
}

func TestSwitchUnits_RerunsLastCity(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "s1", "London")
	require.NoError(t, err)

	view, err := svc.SwitchUnits(ctx, "s1", "imperial")
	require.NoError(t, err)

	calls := repo.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, model.Query{City: "London", Units: model.Imperial}, calls[1])
	assert.Equal(t, model.Imperial, view.Units)
	assert.Equal(t, "°F", view.Display.TempSymbol)
	assert.Equal(t, "5.0 mph", view.Display.FormattedWind)
	assert.True(t, view.UnitOptions[1].Selected)

	view, err = svc.SwitchUnits(ctx, "s1", "kelvin")
	require.NoError(t, err)
	assert.Equal(t, "K", view.Display.TempSymbol)
	assert.Equal(t, "18.0 km/h", view.Display.FormattedWind)
}

func TestSwitchUnits_Invalid(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Lookup(ctx, "s1", "London")
	require.NoError(t, err)

	_, err = svc.SwitchUnits(ctx, "s1", "rankine")
	assert.ErrorIs(t, err, ErrValidation)

	st, err := svc.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Metric, st.Units)
	assert.Len(t, repo.calls(), 1)
}

func TestSwitchUnits_WithoutCity(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.SwitchUnits(ctx, "fresh", "imperial")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.calls())

	st, err := svc.State(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, model.Imperial, st.Units, "units are kept for the next lookup")
}

func TestState_Default(t *testing.T) {
	svc, _ := newTestService(&mockWeatherRepository{})
	st, err := svc.State(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, session.State{Units: model.Metric}, st)

	svc = NewWeatherService(&mockWeatherRepository{}, nil, WithDefaultUnits(model.Kelvin))
	st, err = svc.State(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, model.Kelvin, st.Units)
}

func TestToken(t *testing.T) {
	repo := &mockWeatherRepository{mockData: londonRain(1700010000)}
	svc, _ := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Lookup(ctx, "s1", "London")
	require.NoError(t, err)
	tok := svc.Token(ctx, "s1", first.Generation)
	assert.True(t, tok.Current())

	_, err = svc.Lookup(ctx, "s1", "Paris")
	require.NoError(t, err)
	assert.False(t, tok.Current())
}

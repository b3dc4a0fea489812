package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/go-playground/validator/v10"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Every lookup failure wraps ErrLocationNotFound. The other sentinels are
// wrapped alongside it to tell causes apart in logs.
var (
	ErrLocationNotFound  = errors.New("city not found")
	ErrAPIKeyMissing     = errors.New("API key missing")
	ErrExternalAPI       = errors.New("external API error")
	ErrMalformedResponse = errors.New("malformed weather response")
)

const maxBodyBytes = 1 << 20

// WeatherRepository defines the interface for weather data access
type WeatherRepository interface {
	FetchWeather(ctx context.Context, q model.Query) (*model.WeatherReading, error)
}

// cacheClient is the part of the redis client the repository uses.
type cacheClient interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

type weatherRepository struct {
	cache      cacheClient
	cacheTTL   time.Duration
	httpClient *http.Client
	apiKey     func() string
	apiURL     string
	breaker    *gobreaker.CircuitBreaker
	validate   *validator.Validate
}

type Option func(*weatherRepository)

func WithHTTPClient(c *http.Client) Option {
	return func(r *weatherRepository) {
		if c != nil {
			r.httpClient = c
		}
	}
}

func WithCache(c cacheClient, ttl time.Duration) Option {
	return func(r *weatherRepository) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

func WithoutCache() Option {
	return func(r *weatherRepository) { r.cache = nil }
}

func WithAPIKey(key string) Option {
	return func(r *weatherRepository) { r.apiKey = func() string { return key } }
}

func WithAPIURL(u string) Option {
	return func(r *weatherRepository) { r.apiURL = u }
}

// WithBreaker overrides how many consecutive failures open the breaker and for how long.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(r *weatherRepository) { r.breaker = newBreaker(maxFailures, openTimeout) }
}

// NewWeatherRepository creates a repository configured from config.yaml.
// The redis cache is used when cache.enabled is set.
func NewWeatherRepository(opts ...Option) WeatherRepository {
	maxFailures, openTimeout := config.GetBreakerConfig()
	r := &weatherRepository{
		httpClient: &http.Client{Timeout: config.GetOpenWeatherTimeout()},
		apiKey:     config.GetOpenWeatherMapAPIKey,
		apiURL:     config.GetOpenWeatherApiUrl(),
		breaker:    newBreaker(maxFailures, openTimeout),
		validate:   validator.New(),
	}
	if config.GetCacheEnabled() {
		r.cache = redis.GetClient()
		r.cacheTTL = config.GetCacheExpiration()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newBreaker(maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openweathermap",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			config.GetLogger().Warnw("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

func CacheKey(q model.Query) string {
	return "weather:" + string(q.Units) + ":" + strings.ToLower(q.City)
}

// FetchWeather returns the current reading for q, from cache when possible.
// The upstream is called at most once and never retried.
func (r *weatherRepository) FetchWeather(ctx context.Context, q model.Query) (*model.WeatherReading, error) {
	if err := r.validate.Struct(q); err != nil {
		return nil, fmt.Errorf("%w: invalid query: %v", ErrLocationNotFound, err)
	}

	if cached, err := r.getFromCache(ctx, q); err == nil {
		return cached, nil
	}

	reading, err := r.fetchFromExternalAPI(ctx, q)
	if err != nil {
		return nil, err
	}

	r.cacheReading(ctx, q, reading)
	return reading, nil
}

func (r *weatherRepository) getFromCache(ctx context.Context, q model.Query) (*model.WeatherReading, error) {
	if r.cache == nil {
		return nil, redisv9.Nil
	}
	val, err := r.cache.Get(ctx, CacheKey(q)).Result()
	if err != nil {
		if !errors.Is(err, redisv9.Nil) {
			config.GetLogger().Warnw("Weather cache read failed", "key", CacheKey(q), "error", err)
		}
		return nil, err
	}

	var reading model.WeatherReading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, err
	}
	reading.Cached = true
	return &reading, nil
}

func (r *weatherRepository) cacheReading(ctx context.Context, q model.Query, reading *model.WeatherReading) {
	if r.cache == nil {
		return
	}
	b, err := json.Marshal(reading)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, CacheKey(q), b, r.cacheTTL).Err(); err != nil {
		config.GetLogger().Warnw("Weather cache write failed", "key", CacheKey(q), "error", err)
	}
}

func (r *weatherRepository) fetchFromExternalAPI(ctx context.Context, q model.Query) (*model.WeatherReading, error) {
	apiKey := r.apiKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %w", ErrLocationNotFound, ErrAPIKeyMissing)
	}

	values := url.Values{}
	values.Set("q", q.City)
	if units := q.Units.QueryParam(); units != "" {
		values.Set("units", units)
	}
	values.Set("appid", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrLocationNotFound, ErrExternalAPI, err)
	}

	// Only transport errors and 5xx count against the breaker; a 404 for a
	// misspelt city says nothing about upstream health.
	result, err := r.breaker.Execute(func() (interface{}, error) {
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrLocationNotFound, ErrExternalAPI, err)
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("%w: %w: status %d", ErrLocationNotFound, ErrExternalAPI, resp.StatusCode)
	}

	var data model.OpenWeatherMapResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrLocationNotFound, ErrMalformedResponse, err)
	}
	if err := r.validate.Struct(&data); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrLocationNotFound, ErrMalformedResponse, err)
	}

	return data.Reading(q.Units), nil
}

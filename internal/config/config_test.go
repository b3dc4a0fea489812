package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetOpenWeatherMapAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_KEY", "test_api_key_123")
	assert.Equal(t, "test_api_key_123", GetOpenWeatherMapAPIKey())

	os.Unsetenv("OPENWEATHERMAP_API_KEY")
	assert.Equal(t, "", GetOpenWeatherMapAPIKey())
}

func TestGetRedisAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	assert.Equal(t, "redis.internal:6380", GetRedisAddr())

	os.Unsetenv("REDIS_ADDR")
	assert.Equal(t, "localhost:6379", GetRedisAddr())
}

func TestGetOpenWeatherApiUrl(t *testing.T) {
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/weather", GetOpenWeatherApiUrl())
}

func TestGetIconUrlBase(t *testing.T) {
	assert.Equal(t, "https://openweathermap.org/img/wn", GetIconUrlBase())
}

func TestGetServerPort(t *testing.T) {
	assert.Equal(t, "8080", GetServerPort())

	t.Setenv("PORT", "9090")
	assert.Equal(t, "9090", GetServerPort())
}

func TestGetServerTimeout(t *testing.T) {
	assert.Equal(t, 15*time.Second, GetServerTimeout("read_header_timeout"))
	assert.Equal(t, 10*time.Second, GetServerTimeout("write_timeout"))
	// unknown keys fall back to the default
	assert.Equal(t, 15*time.Second, GetServerTimeout("does_not_exist"))
}

func TestTestConfigIsMerged(t *testing.T) {
	// config_test.yaml overrides these two keys
	assert.Equal(t, 2*time.Second, GetOpenWeatherTimeout())
	assert.False(t, GetCacheEnabled())
	// everything else still comes from config.yaml
	assert.Equal(t, 10*time.Minute, GetCacheExpiration())
}

func TestGetBreakerConfig(t *testing.T) {
	maxFailures, openTimeout := GetBreakerConfig()
	assert.Equal(t, uint32(5), maxFailures)
	assert.Equal(t, 30*time.Second, openTimeout)
}

func TestSessionSettings(t *testing.T) {
	assert.Equal(t, "weather_session", GetSessionCookieName())
	assert.Equal(t, 24*time.Hour, GetSessionTTL())
	assert.Equal(t, "metric", GetDefaultUnits())
}

func TestGetDuration_Invalid(t *testing.T) {
	initConfig()
	viper.Set("cache.expiration", "soon")
	defer viper.Set("cache.expiration", "10m")

	assert.Equal(t, 10*time.Minute, GetCacheExpiration())
}

func TestRateLimiterConfig(t *testing.T) {
	rate, burst := GetGlobalRateLimiterConfig()
	assert.Equal(t, 10.0, rate)
	assert.Equal(t, 10, burst)

	rate, burst = GetParamRateLimiterConfig()
	assert.Equal(t, 6.0, rate)
	assert.Equal(t, 3, burst)

	assert.Equal(t, 3*time.Minute, GetRateLimiterCleanupTimeout())
}

func TestReloadConfigForTest(t *testing.T) {
	// Should not panic or error
	ReloadConfigForTest()
	assert.Equal(t, "8080", GetServerPort())
}

func TestGetProjectRoot(t *testing.T) {
	root, err := getProjectRoot()
	assert.NoError(t, err)
	_, err = os.Stat(root + "/config.yaml")
	assert.NoError(t, err)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger())
	assert.Same(t, GetLogger(), GetLogger())
}

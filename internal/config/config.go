package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func initConfig() {
	once.Do(func() {
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		_ = viper.BindEnv("server.port", "PORT", "SERVER_PORT")

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Error finding project root, using built-in defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file", "error", err)
		}

		if !isTestRun() {
			return
		}
		viper.SetConfigName("config_test")
		if err = viper.MergeInConfig(); err != nil {
			GetLogger().Warnw("Error merging test config file", "error", err)
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func getString(key, def string) string {
	initConfig()
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

// getDuration parses a duration-valued key, falling back to def when unset or invalid.
func getDuration(key string, def time.Duration) time.Duration {
	initConfig()
	durStr := viper.GetString(key)
	if durStr == "" {
		return def
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil || dur <= 0 {
		GetLogger().Warnw("Invalid duration in config, using default", "key", key, "value", durStr, "default", def)
		return def
	}
	return dur
}

func GetOpenWeatherApiUrl() string {
	return getString("openweathermap.api_url", "https://api.openweathermap.org/data/2.5/weather")
}

// GetIconUrlBase is the prefix condition icons are served from; "<base>/<code>@2x.png".
func GetIconUrlBase() string {
	return strings.TrimRight(getString("openweathermap.icon_url", "https://openweathermap.org/img/wn"), "/")
}

// GetOpenWeatherTimeout bounds the single outbound request of a lookup.
func GetOpenWeatherTimeout() time.Duration {
	return getDuration("openweathermap.timeout", 10*time.Second)
}

// GetBreakerConfig returns how many consecutive upstream failures open the
// circuit breaker and how long it stays open.
func GetBreakerConfig() (maxFailures uint32, openTimeout time.Duration) {
	initConfig()
	maxFailures = viper.GetUint32("openweathermap.breaker.max_failures")
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout = getDuration("openweathermap.breaker.open_timeout", 30*time.Second)
	return
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

func GetRedisAddr() string {
	return getString("redis.addr", "localhost:6379")
}

func GetServerPort() string {
	return getString("server.port", "8080")
}

func GetServerTimeout(key string) time.Duration {
	return getDuration("server."+key, 15*time.Second)
}

func GetCacheEnabled() bool {
	initConfig()
	if !viper.IsSet("cache.enabled") {
		return true
	}
	return viper.GetBool("cache.enabled")
}

func GetCacheExpiration() time.Duration {
	return getDuration("cache.expiration", 10*time.Minute)
}

func GetSessionCookieName() string {
	return getString("session.cookie", "weather_session")
}

func GetSessionTTL() time.Duration {
	return getDuration("session.ttl", 24*time.Hour)
}

// GetDefaultUnits is the unit system a new session starts with.
func GetDefaultUnits() string {
	return getString("widget.default_units", "metric")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	return getDuration("rate_limiter.cleanup_timeout", 3*time.Minute)
}

// GetGlobalRateLimiterConfig returns requests per minute and burst for the per-IP limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns requests per minute and burst for the per-IP, per-query limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 6
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 3
	}
	return
}

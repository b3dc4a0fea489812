package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fakhrymubarak/weather-widget/internal/cli"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/session"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newFlagSet(out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("weather-cli", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringP("units", "u", "metric", "unit system: metric, imperial or kelvin")
	fs.Bool("cache", false, "cache readings in redis (REDIS_ADDR)")
	fs.Usage = func() {
		fmt.Fprint(out, "Usage: weather-cli [flags] [city]\n\nWith a city, prints its weather once. Without, starts an interactive prompt.\n\n")
		fs.PrintDefaults()
	}
	return fs
}

// run parses args and either looks up one city or starts the prompt on in.
func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := newFlagSet(out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := viper.BindPFlag("widget.default_units", fs.Lookup("units")); err != nil {
		return err
	}
	if _, err := model.ParseUnitSystem(config.GetDefaultUnits()); err != nil {
		return fmt.Errorf("--units: %w", err)
	}

	opts := []repository.Option{repository.WithoutCache()}
	if useCache, _ := fs.GetBool("cache"); useCache {
		if err := redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis at %s: %w", config.GetRedisAddr(), err)
		}
		defer func() { _ = redis.Close() }()
		opts = []repository.Option{repository.WithCache(redis.GetClient(), config.GetCacheExpiration())}
	}

	svc := service.NewWeatherService(repository.NewWeatherRepository(opts...), session.NewMemoryStore())
	s := cli.NewSession(svc, session.NewID(), render.NewTerminalRenderer(out))

	if city := strings.Join(fs.Args(), " "); city != "" {
		s.Handle(ctx, city)
		return nil
	}
	return s.Run(ctx, in)
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	if config.GetOpenWeatherMapAPIKey() == "" {
		logger.Warn("OPENWEATHERMAP_API_KEY is not set, every lookup will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		logger.Errorw("weather-cli failed", "error", err)
		os.Exit(1)
	}
}

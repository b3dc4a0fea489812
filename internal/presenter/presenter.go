package presenter

import (
	"strconv"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/utils"
)

const (
	DefaultIconURLBase = "https://openweathermap.org/img/wn"

	// FastWindThreshold is compared against the wind value in whatever unit
	// is displayed, so it means 20 km/h or 20 mph.
	FastWindThreshold = 20.0

	msToKmh = 3.6

	WindIconFast = "💨"
	WindIconCalm = "🌬️"
)

// Presenter turns readings into display state. It holds no per-request state.
type Presenter struct {
	IconURLBase string
}

func New(iconURLBase string) *Presenter {
	if iconURLBase == "" {
		iconURLBase = DefaultIconURLBase
	}
	return &Presenter{IconURLBase: iconURLBase}
}

var defaultPresenter = New(DefaultIconURLBase)

// Present uses the public OpenWeatherMap icon host.
func Present(r *model.WeatherReading, unit model.UnitSystem) model.DisplayState {
	return defaultPresenter.Present(r, unit)
}

func (p *Presenter) Present(r *model.WeatherReading, unit model.UnitSystem) model.DisplayState {
	isDay := IsDaytime(r.ObservedAt, r.Sunrise, r.Sunset)
	theme := ThemeFor(isDay)
	temp, symbol := FormatTemperature(r.Temperature, unit)
	wind, windUnit := ConvertWind(r.WindSpeed, unit)
	fast := wind > FastWindThreshold

	return model.DisplayState{
		BackgroundGradient: GradientFor(r.ConditionMain, isDay),
		TextColor:          theme.TextColor,
		BoxShadow:          theme.BoxShadow,
		IsDaytime:          isDay,
		Temperature:        temp,
		TempSymbol:         symbol,
		FormattedTemp:      strconv.Itoa(temp) + symbol,
		WindValue:          wind,
		FormattedWind:      strconv.FormatFloat(wind, 'f', 1, 64) + " " + windUnit,
		WindUnit:           windUnit,
		WindIsFast:         fast,
		WindIcon:           WindIcon(fast),
		LocalTime:          LocalTime(r.ObservedAt, r.UTCOffsetSeconds),
		IconURL:            IconURL(p.IconURLBase, r.IconCode),
	}
}

// FormatTemperature rounds half-up and returns the unit symbol.
func FormatTemperature(temp float64, unit model.UnitSystem) (int, string) {
	return utils.RoundHalfUp(temp), unit.Symbol()
}

// ConvertWind returns the displayed wind value, rounded to one decimal, and
// its label. Imperial passes the upstream value through as mph; everything
// else is treated as m/s and shown in km/h.
func ConvertWind(speed float64, unit model.UnitSystem) (float64, string) {
	if unit == model.Imperial {
		return utils.RoundTo(speed, 1), "mph"
	}
	return utils.RoundTo(speed*msToKmh, 1), "km/h"
}

func WindIcon(fast bool) string {
	if fast {
		return WindIconFast
	}
	return WindIconCalm
}

// IsDaytime reports whether dt lies strictly between sunrise and sunset.
func IsDaytime(dt, sunrise, sunset int64) bool {
	return dt > sunrise && dt < sunset
}

// LocalTime formats dt as HH:MM on the wall clock of the given UTC offset.
func LocalTime(dt int64, offsetSeconds int) string {
	return time.Unix(dt+int64(offsetSeconds), 0).UTC().Format("15:04")
}

func IconURL(base, code string) string {
	return base + "/" + code + "@2x.png"
}

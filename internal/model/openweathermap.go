package model

// OpenWeatherMapResponse is the subset of the current-weather payload the
// widget reads. Pointer fields are required and checked on decode.
type OpenWeatherMapResponse struct {
	Name     *string `json:"name" validate:"required"`
	Timezone *int    `json:"timezone" validate:"required"`
	Dt       *int64  `json:"dt" validate:"required"`
	Sys      *struct {
		Sunrise *int64 `json:"sunrise" validate:"required"`
		Sunset  *int64 `json:"sunset" validate:"required"`
	} `json:"sys" validate:"required"`
	Main *struct {
		Temp      *float64 `json:"temp" validate:"required"`
		FeelsLike float64  `json:"feels_like"`
		Humidity  int      `json:"humidity"`
	} `json:"main" validate:"required"`
	Wind *struct {
		Speed *float64 `json:"speed" validate:"required"`
	} `json:"wind" validate:"required"`
	Weather []OpenWeatherMapCondition `json:"weather" validate:"required,min=1,dive"`
}

type OpenWeatherMapCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main" validate:"required"`
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon" validate:"required"`
}

// Reading flattens a validated payload.
func (r *OpenWeatherMapResponse) Reading(units UnitSystem) *WeatherReading {
	cond := r.Weather[0]
	return &WeatherReading{
		City:                 *r.Name,
		ConditionMain:        cond.Main,
		ConditionDescription: cond.Description,
		IconCode:             cond.Icon,
		Temperature:          *r.Main.Temp,
		WindSpeed:            *r.Wind.Speed,
		Sunrise:              *r.Sys.Sunrise,
		Sunset:               *r.Sys.Sunset,
		ObservedAt:           *r.Dt,
		UTCOffsetSeconds:     *r.Timezone,
		Units:                units,
	}
}

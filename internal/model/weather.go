package model

// Query is one weather lookup request.
type Query struct {
	City  string     `json:"city" validate:"required"`
	Units UnitSystem `json:"units" validate:"required,oneof=metric imperial kelvin"`
}

// WeatherReading holds the fields of a successful upstream response,
// in the units the request was made with.
type WeatherReading struct {
	City                 string     `json:"city"`
	ConditionMain        string     `json:"condition_main"`
	ConditionDescription string     `json:"condition_description"`
	IconCode             string     `json:"icon_code"`
	Temperature          float64    `json:"temperature"`
	WindSpeed            float64    `json:"wind_speed"`
	Sunrise              int64      `json:"sunrise"`
	Sunset               int64      `json:"sunset"`
	ObservedAt           int64      `json:"observed_at"`
	UTCOffsetSeconds     int        `json:"utc_offset_seconds"`
	Units                UnitSystem `json:"units"`
	Cached               bool       `json:"cached"`
}

// DisplayState is everything needed to draw a reading.
type DisplayState struct {
	BackgroundGradient string  `json:"background_gradient"`
	TextColor          string  `json:"text_color"`
	BoxShadow          string  `json:"box_shadow"`
	IsDaytime          bool    `json:"is_daytime"`
	Temperature        int     `json:"temperature"`
	TempSymbol         string  `json:"temp_symbol"`
	FormattedTemp      string  `json:"formatted_temp"`
	WindValue          float64 `json:"wind_value"`
	FormattedWind      string  `json:"formatted_wind"`
	WindUnit           string  `json:"wind_unit"`
	WindIsFast         bool    `json:"wind_is_fast"`
	WindIcon           string  `json:"wind_icon"`
	LocalTime          string  `json:"local_time"`
	IconURL            string  `json:"icon_url"`
}

type ParticleKind string

const (
	ParticleCloud ParticleKind = "cloud"
	ParticleRain  ParticleKind = "rain"
	ParticleSnow  ParticleKind = "snow"
	ParticleStar  ParticleKind = "star"
)

// Particle is one decorative overlay element. Rain and snow use Index for
// staggering; stars are placed by the X/Y fractions in [0,1).
type Particle struct {
	Kind  ParticleKind `json:"kind"`
	Index int          `json:"index,omitempty"`
	X     float64      `json:"x,omitempty"`
	Y     float64      `json:"y,omitempty"`
}

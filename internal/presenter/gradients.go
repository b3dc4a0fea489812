package presenter

// Gradient holds the CSS backgrounds for one condition.
type Gradient struct {
	Day   string
	Night string
}

// DefaultGradient applies to any condition missing from the table.
var DefaultGradient = Gradient{
	Day:   "linear-gradient(to top, #c3ecf9, #eeefff)",
	Night: "linear-gradient(to top, #0f2027, #203a43, #2c5364)",
}

// gradients is keyed by the upstream "weather[0].main" label.
var gradients = map[string]Gradient{
	"Clear": {
		Day:   "linear-gradient(to top, #a1c4fd, #c2e9fb)",
		Night: "linear-gradient(to top, #0d1b2a, #1b263b)",
	},
	"Clouds": {
		Day:   "linear-gradient(to top, #d7d2cc, #304352)",
		Night: "linear-gradient(to top, #2c3e50, #4ca1af)",
	},
	"Rain": {
		Day:   "linear-gradient(to top, #89f7fe, #66a6ff)",
		Night: "linear-gradient(to top, #1f1c2c, #928dab)",
	},
	"Snow": {
		Day:   "linear-gradient(to top, #e0eafc, #cfdef3)",
		Night: "linear-gradient(to top, #2c3e50, #bdc3c7)",
	},
	"Thunderstorm": {
		Day:   "linear-gradient(to top, #141e30, #243b55)",
		Night: "linear-gradient(to top, #0f0c29, #302b63)",
	},
	// same palette as Clouds
	"Mist": {
		Day:   "linear-gradient(to top, #d7d2cc, #304352)",
		Night: "linear-gradient(to top, #2c3e50, #4ca1af)",
	},
}

// GetGradient returns the gradient pair for a condition, or DefaultGradient.
func GetGradient(condition string) Gradient {
	if g, ok := gradients[condition]; ok {
		return g
	}
	return DefaultGradient
}

// GradientFor picks the day or night slot for a condition.
func GradientFor(condition string, isDaytime bool) string {
	g := GetGradient(condition)
	if isDaytime {
		return g.Day
	}
	return g.Night
}

// Theme is the text color and shadow depth applied alongside the gradient.
type Theme struct {
	TextColor string
	BoxShadow string
}

var (
	DayTheme = Theme{
		TextColor: "#1a1a1a",
		BoxShadow: "0 20px 40px rgba(0,0,0,0.15)",
	}
	NightTheme = Theme{
		TextColor: "#f5f5f5",
		BoxShadow: "0 30px 60px rgba(0,0,0,0.6)",
	}
	// ErrorTheme is the neutral look of the error and loading states.
	ErrorTheme = Theme{
		TextColor: "#333",
	}
)

const NeutralBackground = "#fff"

func ThemeFor(isDaytime bool) Theme {
	if isDaytime {
		return DayTheme
	}
	return NightTheme
}

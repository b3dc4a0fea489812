package model

import (
	"errors"
	"fmt"
	"strings"
)

// UnitSystem selects how temperatures and wind speeds are expressed.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
	Kelvin   UnitSystem = "kelvin"
)

var ErrUnknownUnitSystem = errors.New("unknown unit system")

// UnitSystems lists the selectable systems in display order.
func UnitSystems() []UnitSystem {
	return []UnitSystem{Metric, Imperial, Kelvin}
}

func ParseUnitSystem(s string) (UnitSystem, error) {
	u := UnitSystem(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case Metric, Imperial, Kelvin:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnitSystem, s)
}

// QueryParam is the value sent as the upstream "units" parameter.
// Kelvin is the upstream default, so it sends nothing.
func (u UnitSystem) QueryParam() string {
	if u == Kelvin {
		return ""
	}
	return string(u)
}

func (u UnitSystem) Symbol() string {
	switch u {
	case Metric:
		return "°C"
	case Imperial:
		return "°F"
	default:
		return "K"
	}
}

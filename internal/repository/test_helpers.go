package repository

import (
	"io"
	"net/http"
	"strings"
)

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NewMockHTTPClient returns a client whose every request is answered by fn.
func NewMockHTTPClient(fn RoundTripperFunc) *http.Client {
	return &http.Client{Transport: fn}
}

// StubResponse builds a response with the given status and body.
func StubResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// LondonRainJSON is a current-weather payload observed between sunrise and sunset.
const LondonRainJSON = `{
  "name": "London",
  "timezone": 0,
  "dt": 1700010000,
  "sys": {"country": "GB", "sunrise": 1700000000, "sunset": 1700030000},
  "main": {"temp": 15.7, "feels_like": 15.1, "humidity": 82},
  "wind": {"speed": 5, "deg": 240},
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}]
}`

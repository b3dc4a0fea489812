package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockOWM(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.URL.Query().Get("q"), "london") {
			_, _ = io.WriteString(w, repository.LondonRainJSON)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("OPENWEATHERMAP_API_URL", srv.URL)
	t.Setenv("OPENWEATHERMAP_API_KEY", "test_api_key")
	return srv
}

func TestRun_OneShot(t *testing.T) {
	mockOWM(t)
	var out bytes.Buffer

	err := run(context.Background(), []string{"--units", "imperial", "London"}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Units  °C [°F] K")
	assert.True(t, strings.HasSuffix(out.String(), "16°F\n"))
}

func TestRun_Interactive(t *testing.T) {
	mockOWM(t)
	var out bytes.Buffer

	err := run(context.Background(), []string{"-u", "kelvin"}, strings.NewReader("Atlantis\n\n:quit\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), render.MsgNotFound)
	assert.Contains(t, out.String(), "! "+render.MsgEnterCity)
}

func TestRun_BadFlags(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"--units", "rankine"}, strings.NewReader(""), &out)
	assert.ErrorContains(t, err, "--units")

	out.Reset()
	err = run(context.Background(), []string{"--help"}, strings.NewReader(""), &out)
	assert.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, out.String(), "Usage: weather-cli")
}

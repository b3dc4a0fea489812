package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/fakhrymubarak/weather-widget/internal/animation"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
)

const helpText = `Type a city name to look up its weather.
  :units metric|imperial|kelvin  switch units and refresh the last city
  :help                          show this text
  :quit                          exit`

// Session drives the widget from a line-oriented terminal.
type Session struct {
	svc       service.WeatherServiceInterface
	sessionID string
	renderer  *render.TerminalRenderer
}

func NewSession(svc service.WeatherServiceInterface, sessionID string, renderer *render.TerminalRenderer) *Session {
	return &Session{svc: svc, sessionID: sessionID, renderer: renderer}
}

// Run reads commands from in until EOF, :quit or ctx ends.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	s.renderer.Prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if !s.Handle(ctx, line) {
				return nil
			}
			s.renderer.Prompt()
		}
	}
}

// Handle runs one input line and reports whether the session should go on.
func (s *Session) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		s.lookup(ctx, line)
		return true
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	switch strings.ToLower(cmd) {
	case "q", "quit", "exit":
		return false
	case "h", "help":
		s.renderer.Info(helpText)
	case "u", "units":
		s.switchUnits(ctx, arg)
	default:
		s.renderer.Alert("Unknown command :" + cmd + " (try :help)")
	}
	return true
}

func (s *Session) lookup(ctx context.Context, city string) {
	if strings.TrimSpace(city) == "" {
		s.renderer.Alert(render.MsgEnterCity)
		return
	}
	s.renderer.Loading()
	view, err := s.svc.Lookup(ctx, s.sessionID, city)
	s.show(ctx, city, view, err)
}

func (s *Session) switchUnits(ctx context.Context, raw string) {
	if _, err := model.ParseUnitSystem(raw); err != nil {
		s.renderer.Alert(render.MsgUnknownUnits)
		return
	}
	st, err := s.svc.State(ctx, s.sessionID)
	if err != nil {
		s.renderer.Error(render.MsgNotFound)
		config.GetLogger().Errorw("Failed to read session", "session", s.sessionID, "error", err)
		return
	}
	if st.City == "" {
		units, err := s.svc.SetUnits(ctx, s.sessionID, raw)
		switch {
		case errors.Is(err, service.ErrValidation):
			s.renderer.Alert(render.MsgUnknownUnits)
			return
		case err != nil:
			s.renderer.Error(render.MsgNotFound)
			logFailure(s.sessionID, "", err)
			return
		}
		s.renderer.Info("Units set to " + units.Symbol())
		return
	}
	s.renderer.Loading()
	view, err := s.svc.SwitchUnits(ctx, s.sessionID, raw)
	s.show(ctx, st.City, view, err)
}

func (s *Session) show(ctx context.Context, city string, view *render.View, err error) {
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		s.renderer.Alert(render.MsgEnterCity)
		return
	case errors.Is(err, service.ErrSuperseded):
		return
	default:
		s.renderer.Error(render.MsgNotFound)
		logFailure(s.sessionID, city, err)
		return
	}

	tok := s.svc.Token(ctx, s.sessionID, view.Generation)
	if err := s.renderer.Render(ctx, view, tok); err != nil &&
		!errors.Is(err, animation.ErrSuperseded) && !errors.Is(err, context.Canceled) {
		config.GetLogger().Warnw("Counter animation stopped", "city", city, "error", err)
	}
}

func logFailure(sessionID, city string, err error) {
	log := config.GetLogger().With("session", sessionID, "city", city, "error", err)
	if errors.Is(err, repository.ErrLocationNotFound) {
		log.Infow("Weather lookup failed")
		return
	}
	log.Errorw("Weather lookup failed")
}

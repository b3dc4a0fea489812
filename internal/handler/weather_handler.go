package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/metrics"
	"github.com/fakhrymubarak/weather-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type WeatherHandler struct {
	WeatherService service.WeatherServiceInterface
	Renderer       *render.HTMLRenderer
	// Ping checks backing services for /health; nil means always healthy.
	Ping func(ctx context.Context) error
}

func NewWeatherHandler(svc service.WeatherServiceInterface) (*WeatherHandler, error) {
	if svc == nil {
		svc = service.NewWeatherService(nil, nil)
	}
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	return &WeatherHandler{
		WeatherService: svc,
		Renderer:       renderer,
	}, nil
}

// Routes mounts the widget page, the JSON API, health and metrics.
func (h *WeatherHandler) Routes(limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/", h.HandleIndex)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.MiddlewareWith(h.writeThrottledPage))
		}
		r.Get("/weather", h.HandleWeatherPage)
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		r.Get("/weather", h.HandleWeatherAPI)
		r.Post("/units", h.HandleUnitsAPI)
	})
	return r
}

// writeThrottledPage renders the widget's error state for a rate-limited
// page request, so the search form stays usable.
func (h *WeatherHandler) writeThrottledPage(w http.ResponseWriter, r *http.Request, _, _ string) {
	sid := h.sessionID(w, r)
	units := h.sessionUnits(r.Context(), sid)
	if u, err := model.ParseUnitSystem(r.URL.Query().Get("units")); err == nil {
		units = u
	}
	h.writePage(w, http.StatusTooManyRequests, render.Page{
		City:  r.URL.Query().Get("city"),
		Units: units,
		Error: render.MsgNotFound,
	})
}

func (h *WeatherHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func (h *WeatherHandler) writeJSONError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.ErrorResponse(errMsg, "Error"))
}

// writePage renders into a buffer first so a template failure can still become a 500.
func (h *WeatherHandler) writePage(w http.ResponseWriter, statusCode int, page render.Page) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, page); err != nil {
		config.GetLogger().Errorw("Failed to render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// sessionID returns the visitor's session id, issuing a cookie on first visit.
func (h *WeatherHandler) sessionID(w http.ResponseWriter, r *http.Request) string {
	name := config.GetSessionCookieName()
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}
	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(config.GetSessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// sessionUnits is the session's active unit system, or the configured default
// when the session cannot be read.
func (h *WeatherHandler) sessionUnits(ctx context.Context, sid string) model.UnitSystem {
	st, err := h.WeatherService.State(ctx, sid)
	if err != nil || st.Units == "" {
		if err != nil {
			config.GetLogger().Errorw("Failed to load session", "session", sid, "error", err)
		}
		return service.DefaultUnits()
	}
	return st.Units
}

// lookupStatus maps a lookup error to a status code and the text shown to the user.
// Every upstream-side failure shows the same message.
func lookupStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, render.MsgEnterCity
	case errors.Is(err, service.ErrSuperseded):
		return http.StatusConflict, ""
	case errors.Is(err, repository.ErrLocationNotFound):
		return http.StatusNotFound, render.MsgNotFound
	default:
		return http.StatusInternalServerError, render.MsgNotFound
	}
}

func logLookupError(r *http.Request, sid, city string, status int, err error) {
	logger := config.GetLogger()
	fields := []interface{}{"request_id", chimw.GetReqID(r.Context()), "session", sid, "city", city, "error", err}
	switch {
	case status >= http.StatusInternalServerError:
		logger.Errorw("Weather lookup failed", fields...)
	case status == http.StatusConflict:
		logger.Infow("Weather lookup superseded", fields...)
	default:
		logger.Warnw("Weather lookup rejected", fields...)
	}
}

func (h *WeatherHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	st, err := h.WeatherService.State(r.Context(), sid)
	if err != nil {
		config.GetLogger().Errorw("Failed to load session", "session", sid, "error", err)
		st = session.State{Units: service.DefaultUnits()}
	}
	h.writePage(w, http.StatusOK, render.Page{City: st.City, Units: st.Units})
}

// HandleWeatherPage is the form target: it applies ?units= when present and
// looks up ?city=.
func (h *WeatherHandler) HandleWeatherPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.sessionID(w, r)
	city := r.URL.Query().Get("city")

	if raw := r.URL.Query().Get("units"); raw != "" {
		if _, err := h.WeatherService.SetUnits(ctx, sid, raw); err != nil {
			page := render.Page{City: city, Units: h.sessionUnits(ctx, sid)}
			status := http.StatusBadRequest
			if errors.Is(err, service.ErrValidation) {
				page.Alert = render.MsgUnknownUnits
			} else {
				status, page.Error = lookupStatus(err)
			}
			logLookupError(r, sid, city, status, err)
			h.writePage(w, status, page)
			return
		}
	}

	view, err := h.WeatherService.Lookup(ctx, sid, city)
	if err != nil {
		status, msg := lookupStatus(err)
		logLookupError(r, sid, city, status, err)
		page := render.Page{City: city, Units: h.sessionUnits(ctx, sid)}
		if status == http.StatusBadRequest {
			page.Alert = msg
		} else {
			page.Error = msg
		}
		h.writePage(w, status, page)
		return
	}

	h.writePage(w, http.StatusOK, render.Page{City: view.City, Units: view.Units, View: view})
}

func (h *WeatherHandler) HandleWeatherAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.sessionID(w, r)
	city := r.URL.Query().Get("city")

	if raw := r.URL.Query().Get("units"); raw != "" {
		if _, err := h.WeatherService.SetUnits(ctx, sid, raw); err != nil {
			if !errors.Is(err, service.ErrValidation) {
				h.writeLookupJSON(w, r, sid, city, nil, err)
				return
			}
			logLookupError(r, sid, city, http.StatusBadRequest, err)
			h.writeJSONError(w, http.StatusBadRequest, render.MsgUnknownUnits)
			return
		}
	}

	view, err := h.WeatherService.Lookup(ctx, sid, city)
	h.writeLookupJSON(w, r, sid, city, view, err)
}

func (h *WeatherHandler) HandleUnitsAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := h.sessionID(w, r)
	raw := r.FormValue("units")

	if _, err := model.ParseUnitSystem(raw); err != nil {
		logLookupError(r, sid, "", http.StatusBadRequest, err)
		h.writeJSONError(w, http.StatusBadRequest, render.MsgUnknownUnits)
		return
	}
	view, err := h.WeatherService.SwitchUnits(ctx, sid, raw)
	city := ""
	if view != nil {
		city = view.City
	}
	h.writeLookupJSON(w, r, sid, city, view, err)
}

func (h *WeatherHandler) writeLookupJSON(w http.ResponseWriter, r *http.Request, sid, city string, view *render.View, err error) {
	if err != nil {
		status, msg := lookupStatus(err)
		logLookupError(r, sid, city, status, err)
		if status == http.StatusConflict {
			msg = service.ErrSuperseded.Error()
		}
		h.writeJSONError(w, status, msg)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    view,
		Message: "Success",
	})
}

func (h *WeatherHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			config.GetLogger().Warnw("Health check failed", "error", err)
			h.writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

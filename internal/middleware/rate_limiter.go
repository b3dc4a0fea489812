package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"golang.org/x/time/rate"
)

// visitor holds a limiter and when it was last used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces two budgets per client IP: one over all requests and
// one per distinct city/units pair, so a single visitor cannot hammer the
// upstream for the same city.
type RateLimiter struct {
	globalRate  rate.Limit
	globalBurst int
	paramRate   rate.Limit
	paramBurst  int
	idleTimeout time.Duration

	mu     sync.Mutex
	global map[string]*visitor            // key: ip
	param  map[string]map[string]*visitor // key: ip -> city|units
	now    func() time.Time
}

// NewRateLimiter takes rates in requests per minute.
func NewRateLimiter(globalPerMinute float64, globalBurst int, paramPerMinute float64, paramBurst int, idleTimeout time.Duration) *RateLimiter {
	return &RateLimiter{
		globalRate:  rate.Limit(globalPerMinute / 60.0),
		globalBurst: globalBurst,
		paramRate:   rate.Limit(paramPerMinute / 60.0),
		paramBurst:  paramBurst,
		idleTimeout: idleTimeout,
		global:      make(map[string]*visitor),
		param:       make(map[string]map[string]*visitor),
		now:         time.Now,
	}
}

// NewRateLimiterFromConfig reads the rate_limiter section of config.yaml.
func NewRateLimiterFromConfig() *RateLimiter {
	gRate, gBurst := config.GetGlobalRateLimiterConfig()
	pRate, pBurst := config.GetParamRateLimiterConfig()
	return NewRateLimiter(gRate, gBurst, pRate, pBurst, config.GetRateLimiterCleanupTimeout())
}

func (rl *RateLimiter) globalLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.global[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.globalRate, rl.globalBurst)}
		rl.global[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) paramLimiter(ip, param string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	byParam, ok := rl.param[ip]
	if !ok {
		byParam = make(map[string]*visitor)
		rl.param[ip] = byParam
	}
	v, ok := byParam[param]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.paramRate, rl.paramBurst)}
		byParam[param] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Cleanup drops visitors idle for longer than the configured timeout.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idleTimeout)
	for ip, v := range rl.global {
		if v.lastSeen.Before(cutoff) {
			delete(rl.global, ip)
		}
	}
	for ip, byParam := range rl.param {
		for p, v := range byParam {
			if v.lastSeen.Before(cutoff) {
				delete(byParam, p)
			}
		}
		if len(byParam) == 0 {
			delete(rl.param, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Visitors reports how many IPs are tracked.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.global)
}

// getIP extracts the client's IP address, honoring X-Forwarded-For.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// getParam keys a request by the lookup it triggers; requests without a
// city or units share one bucket.
func getParam(r *http.Request) string {
	city := strings.ToLower(strings.TrimSpace(r.FormValue("city")))
	units := strings.ToLower(strings.TrimSpace(r.FormValue("units")))
	if city == "" && units == "" {
		return "__none__"
	}
	return city + "|" + units
}

// RejectFunc writes the reply for a throttled request. errMsg names the
// limit that was hit; message is a short status line.
type RejectFunc func(w http.ResponseWriter, r *http.Request, errMsg, message string)

// WriteTooManyRequestsJSON is the default RejectFunc: 429 with a JSON envelope.
func WriteTooManyRequestsJSON(w http.ResponseWriter, _ *http.Request, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse(errMsg, message))
}

// Middleware responds 429 with a JSON envelope once either budget is spent.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return rl.MiddlewareWith(WriteTooManyRequestsJSON)(next)
}

// MiddlewareWith shares this limiter's budgets but lets the caller shape the
// rejection, e.g. an HTML page instead of JSON.
func (rl *RateLimiter) MiddlewareWith(reject RejectFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = WriteTooManyRequestsJSON
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIP(r)
			if !rl.globalLimiter(ip).Allow() {
				config.GetLogger().Warnw("Global rate limit exceeded", "ip", ip, "path", r.URL.Path)
				reject(w, r,
					fmt.Sprintf("Rate limit exceeded: max %d requests per minute per user/IP", int(float64(rl.globalRate)*60+0.5)),
					"Too Many Requests (global limit)")
				return
			}
			param := getParam(r)
			if !rl.paramLimiter(ip, param).Allow() {
				config.GetLogger().Warnw("Per-city rate limit exceeded", "ip", ip, "param", param)
				reject(w, r,
					fmt.Sprintf("Rate limit exceeded: max %d requests per minute per city per user/IP", int(float64(rl.paramRate)*60+0.5)),
					"Too Many Requests (per-city limit)")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

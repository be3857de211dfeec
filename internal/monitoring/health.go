package monitoring

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	// DatabaseCheck is the check whose result is reported as dbState.
	DatabaseCheck = "database"
)

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

// HealthChecker runs registered probes on demand. Probes run concurrently and
// each gets its own timeout.
type HealthChecker struct {
	mu      sync.RWMutex
	probes  map[string]HealthCheckFunc
	timeout time.Duration
}

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{probes: make(map[string]HealthCheckFunc), timeout: timeout}
}

func (h *HealthChecker) Register(name string, fn HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = fn
}

func (h *HealthChecker) Run(ctx context.Context) map[string]HealthCheck {
	h.mu.RLock()
	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	probes := make([]HealthCheckFunc, len(names))
	for i, name := range names {
		probes[i] = h.probes[name]
	}
	h.mu.RUnlock()

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			check := HealthCheck{Name: names[i], Status: StatusHealthy}
			if err := probes[i](cctx); err != nil {
				check.Status = StatusUnhealthy
				check.Message = err.Error()
			}
			check.LastRun = time.Now().UTC()
			results[i] = check
		}(i)
	}
	wg.Wait()

	out := make(map[string]HealthCheck, len(results))
	for _, check := range results {
		out[check.Name] = check
	}
	return out
}

func dbState(checks map[string]HealthCheck) string {
	check, ok := checks[DatabaseCheck]
	switch {
	case !ok:
		return "unknown"
	case check.Status == StatusHealthy:
		return "connected"
	default:
		return "disconnected"
	}
}

// overallStatus is unhealthy only when the database is down. Other failing
// checks leave the server degraded but still serving.
func overallStatus(checks map[string]HealthCheck) string {
	if check, ok := checks[DatabaseCheck]; ok && check.Status != StatusHealthy {
		return StatusUnhealthy
	}
	for _, check := range checks {
		if check.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}

func HealthHandler(h *HealthChecker, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := h.Run(c.Request.Context())
		overall := overallStatus(checks)

		response := gin.H{
			"status":    overall,
			"dbState":   dbState(checks),
			"timestamp": time.Now().UTC(),
			"checks":    checks,
		}
		if m != nil {
			response["uptime"] = m.Uptime().Round(time.Second).String()
		}

		status := http.StatusOK
		if overall == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response)
	}
}

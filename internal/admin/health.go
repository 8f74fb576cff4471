package admin

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/gwcore/internal/observability"
)

// DefaultReadinessTimeout bounds one readiness probe.
const DefaultReadinessTimeout = 5 * time.Second

var errNoSnapshot = errors.New("no route snapshot published")

// Check is a named readiness check.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheckFunc creates a check named name.
func NewCheckFunc(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the check name.
func (f *CheckFunc) Name() string { return f.name }

// Check runs the check.
func (f *CheckFunc) Check(ctx context.Context) error { return f.fn(ctx) }

// Status is the readiness report.
type Status struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Uptime    string                  `json:"uptime,omitempty"`
	Checks    map[string]*CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Health runs readiness checks concurrently.
type Health struct {
	mu        sync.RWMutex
	checks    []Check
	logger    observability.Logger
	timeout   time.Duration
	startTime time.Time
}

// NewHealth creates a Health without checks.
func NewHealth(logger observability.Logger) *Health {
	return &Health{
		logger:    logger,
		timeout:   DefaultReadinessTimeout,
		startTime: time.Now(),
	}
}

// AddCheck registers a readiness check.
func (h *Health) AddCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// LivenessHandler reports that the process serves requests.
func (h *Health) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	}
}

// ReadinessHandler runs every check and answers 503 when one fails.
func (h *Health) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		status := h.Run(ctx)

		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}

// Run executes all checks and aggregates their results.
func (h *Health) Run(ctx context.Context) *Status {
	h.mu.RLock()
	checks := make([]Check, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	status := &Status{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]*CheckResult, len(checks)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, check := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			duration := time.Since(start)

			result := &CheckResult{Status: "ok", Duration: duration.String()}
			if err != nil {
				result.Status = "error"
				result.Error = err.Error()
				h.logger.Warn("readiness check failed",
					observability.String("check", c.Name()),
					observability.Error(err),
					observability.Duration("duration", duration),
				)
			}

			mu.Lock()
			if err != nil {
				status.Status = "error"
			}
			status.Checks[c.Name()] = result
			mu.Unlock()
		}(check)
	}

	wg.Wait()
	return status
}

// SnapshotCheck fails until the first route snapshot has been published.
func SnapshotCheck(routes SnapshotProvider) Check {
	return NewCheckFunc("route-snapshot", func(context.Context) error {
		if routes.Snapshot().Generation() == 0 {
			return errNoSnapshot
		}
		return nil
	})
}

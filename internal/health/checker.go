// Package health periodically checks the server's dependencies and reports
// an aggregate status for /healthz.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	CheckTimeout  time.Duration
	FailThreshold int
}

// CheckFunc checks one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// MetricsRecordFunc is an optional callback for recording check results.
type MetricsRecordFunc func(check string, success bool)

// CheckStatus is the last known state of a check.
type CheckStatus struct {
	Status    string    `json:"status"`
	Failures  int       `json:"consecutive_failures"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs registered checks on an interval. A check is reported as
// degraded once it fails FailThreshold times in a row and recovers on the
// first success.
type Checker struct {
	mu        sync.Mutex
	checks    map[string]CheckFunc
	status    map[string]CheckStatus
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.CheckTimeout == 0 {
		cfg.CheckTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	return &Checker{
		checks: make(map[string]CheckFunc),
		status: make(map[string]CheckStatus),
		cfg:    cfg,
		logger: logger,
	}
}

// Add registers a named check. Checks start out healthy.
func (h *Checker) Add(name string, p CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = p
	h.status[name] = CheckStatus{Status: StatusHealthy}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs CheckAll on every tick until ctx is done.
func (h *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll runs every check concurrently and updates their status.
func (h *Checker) CheckAll(ctx context.Context) {
	h.mu.Lock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, p := range h.checks {
		checks[name] = p
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for name, p := range checks {
		wg.Add(1)
		go func(name string, p CheckFunc) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, h.cfg.CheckTimeout)
			err := p(pctx)
			cancel()

			if h.onMetrics != nil {
				h.onMetrics(name, err == nil)
			}
			h.record(name, err)
		}(name, p)
	}
	wg.Wait()
}

func (h *Checker) record(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.status[name]
	prev := st.Status
	st.CheckedAt = time.Now().UTC()

	if err == nil {
		st.Failures = 0
		st.LastError = ""
		st.Status = StatusHealthy
		if prev == StatusDegraded {
			h.logger.Info("health: recovered", zap.String("check", name))
		}
		h.status[name] = st
		return
	}

	st.Failures++
	st.LastError = err.Error()
	if st.Failures >= h.cfg.FailThreshold {
		st.Status = StatusDegraded
	}
	if st.Failures == h.cfg.FailThreshold {
		h.logger.Warn("health: degraded",
			zap.String("check", name),
			zap.Int("fail_count", st.Failures),
			zap.Error(err),
		)
	}
	h.status[name] = st
}

// Snapshot returns the overall status and a copy of every check's status.
func (h *Checker) Snapshot() (string, map[string]CheckStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	overall := StatusHealthy
	out := make(map[string]CheckStatus, len(h.status))
	for name, st := range h.status {
		out[name] = st
		if st.Status != StatusHealthy {
			overall = StatusDegraded
		}
	}
	return overall, out
}

// Degraded returns the names of degraded checks in sorted order.
func (h *Checker) Degraded() []string {
	_, all := h.Snapshot()
	var names []string
	for name, st := range all {
		if st.Status == StatusDegraded {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Handler serves the aggregate status: 200 when healthy, 503 otherwise.
func (h *Checker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		overall, checks := h.Snapshot()
		code := http.StatusOK
		if overall != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": overall, "checks": checks})
	}
}

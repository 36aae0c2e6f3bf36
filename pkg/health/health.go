// Package health implements liveness and readiness probes for HTTP services.
//
// All registered probes run on a single scheduler goroutine: every tick the
// scheduler fans the probes out, waits for them, and records the results
// under a lock. A probe flips to failing only after it has failed
// consecutively failureThreshold times, so a single slow database ping does
// not bounce the pod out of the load balancer. One successful run restores it.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes a single component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// failureThreshold is how many consecutive failures a probe needs before it
// is reported as failing.
const failureThreshold = 3

type probeKind int

const (
	kindLiveness probeKind = iota
	kindReadiness
)

// probe is a registered check plus its recorded state. State fields are
// guarded by Health.mu; the scheduler writes them, HTTP handlers read them.
type probe struct {
	name    string
	kind    probeKind
	timeout time.Duration
	check   CheckFunc

	failing bool
	streak  int // consecutive failures
	lastErr error
}

// Health schedules probes and serves their results over HTTP.
type Health struct {
	mu     sync.RWMutex
	probes []*probe
	ready  bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a Health with no probes. The service reports not-ready until
// SetReady(true) is called.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe that decides whether the process should
// be restarted, such as a goroutine leak or GC pause detector.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(name, kindLiveness, timeout, check)
}

// AddReadinessCheck registers a probe that decides whether the service should
// receive traffic, such as a database ping.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.add(name, kindReadiness, timeout, check)
}

func (h *Health) add(name string, kind probeKind, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, &probe{
		name:    name,
		kind:    kind,
		timeout: timeout,
		check:   check,
	})
}

// Start launches the scheduler. Probes run once immediately and then every
// interval until the context is cancelled or Stop is called. Register all
// probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	h.mu.Lock()
	h.cancel = cancel
	h.done = done
	h.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.runAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runAll(ctx)
			}
		}
	}()
}

// runAll executes every probe concurrently and folds the results back into
// the probe states.
func (h *Health) runAll(ctx context.Context) {
	h.mu.RLock()
	probes := make([]*probe, len(h.probes))
	copy(probes, h.probes)
	h.mu.RUnlock()

	errs := make([]error, len(probes))

	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			errs[i] = p.check(probeCtx)
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range probes {
		p.lastErr = errs[i]
		if errs[i] != nil {
			p.streak++
			if p.streak >= failureThreshold {
				p.failing = true
			}
			continue
		}
		p.streak = 0
		p.failing = false
	}
}

// SetReady flips the manual readiness gate. Call with true once startup
// finishes and with false when draining before shutdown.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.ready {
		return false
	}
	for _, p := range h.probes {
		if p.kind == kindReadiness && p.failing {
			return false
		}
	}
	return true
}

// Stop cancels the scheduler and waits for it to exit. Safe to call more
// than once.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// report is the JSON body served by both endpoints. Every probe of the
// relevant kind appears in Checks, passing ones as "ok".
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while all liveness probes pass, 503
// otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.serveKind(w, kindLiveness, true)
}

// ReadyEndpoint serves /readyz: 200 while the manual gate is open and all
// readiness probes pass, 503 otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	ready := h.ready
	h.mu.RUnlock()

	h.serveKind(w, kindReadiness, ready)
}

func (h *Health) serveKind(w http.ResponseWriter, kind probeKind, gate bool) {
	rep := report{Status: "ok", Checks: map[string]string{}}
	healthy := gate
	if !gate {
		rep.Checks["_gate"] = "service is not ready"
	}

	h.mu.RLock()
	for _, p := range h.probes {
		if p.kind != kind {
			continue
		}
		switch {
		case !p.failing:
			rep.Checks[p.name] = "ok"
		case p.lastErr != nil:
			rep.Checks[p.name] = p.lastErr.Error()
			healthy = false
		default:
			rep.Checks[p.name] = "failing"
			healthy = false
		}
	}
	h.mu.RUnlock()

	status := http.StatusOK
	if !healthy {
		rep.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rep)
}

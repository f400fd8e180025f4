// Package health serves the liveness and readiness probes of the API.
//
// Checks run when a probe is requested, concurrently and each under its own
// timeout. The result is written in the API response envelope:
//
//	{"code": 503, "message": "unavailable", "data": {"status": "unhealthy", "checks": {"postgres": "ping: ..."}}}
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/merchant-orders/internal/envelope"
)

var errNotReady = errors.New("service is not ready")

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Check is a named CheckFunc with its timeout.
type Check struct {
	Name    string
	Timeout time.Duration
	Func    CheckFunc
}

// Probes holds the liveness and readiness checks of the service.
//
// Readiness additionally depends on a flag flipped by SetReady, which the
// server clears when it starts draining.
type Probes struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []Check
	readiness []Check
}

// New returns Probes that report not ready until SetReady(true).
func New() *Probes {
	return &Probes{}
}

// AddLiveness registers a check for /livez.
func (p *Probes) AddLiveness(c Check) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.liveness = append(p.liveness, c)
}

// AddReadiness registers a check for /readyz.
func (p *Probes) AddReadiness(c Check) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readiness = append(p.readiness, c)
}

// SetReady sets whether the service accepts traffic.
func (p *Probes) SetReady(v bool) { p.ready.Store(v) }

// IsReady reports the value set by SetReady.
func (p *Probes) IsReady() bool { return p.ready.Load() }

// LiveEndpoint serves /livez.
func (p *Probes) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	checks := append([]Check(nil), p.liveness...)
	p.mu.RUnlock()

	writeReport(w, run(r.Context(), checks), nil)
}

// ReadyEndpoint serves /readyz. It fails while the service is not marked
// ready, even when every check passes.
func (p *Probes) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	checks := append([]Check(nil), p.readiness...)
	p.mu.RUnlock()

	var notReady error
	if !p.IsReady() {
		notReady = errNotReady
	}
	writeReport(w, run(r.Context(), checks), notReady)
}

// result is the outcome of one check; err is nil on success.
type result struct {
	name string
	err  error
}

// run executes checks concurrently and returns results in registration
// order.
func run(ctx context.Context, checks []Check) []result {
	results := make([]result, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, c.Timeout)
			defer cancel()
			results[i] = result{name: c.Name, err: c.Func(cctx)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func writeReport(w http.ResponseWriter, results []result, notReady error) {
	healthy := notReady == nil
	for _, res := range results {
		if res.err != nil {
			healthy = false
		}
	}

	code, message, status := http.StatusOK, "ok", "ok"
	if !healthy {
		code, message, status = http.StatusServiceUnavailable, "unavailable", "unhealthy"
	}

	envelope.Write(w, code, message, &envelope.Resource{
		Data: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("status")
			e.Str(status)
			if notReady != nil {
				e.FieldStart("reason")
				e.Str(notReady.Error())
			}
			e.FieldStart("checks")
			e.ObjStart()
			for _, res := range results {
				e.FieldStart(res.name)
				if res.err != nil {
					e.Str(res.err.Error())
				} else {
					e.Str("ok")
				}
			}
			e.ObjEnd()
			e.ObjEnd()
		},
	})
}

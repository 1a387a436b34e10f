// Package health provides liveness and readiness probe endpoints. Registered
// checks run periodically in the background; the HTTP endpoints only read the
// latest results.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(checkCtx)
	c.lastErr.Store(&err)
	c.healthy.Store(err == nil)
}

// Service aggregates liveness and readiness checks and serves their state.
type Service struct {
	mu        sync.Mutex
	liveness  []*check
	readiness []*check

	ready  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an empty health service. Until Start runs the checks once,
// every registered check reports healthy.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a check that gates the liveness endpoint.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(&s.liveness, name, timeout, fn)
}

// AddReadinessCheck registers a check that gates the readiness endpoint.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.add(&s.readiness, name, timeout, fn)
}

func (s *Service) add(dst *[]*check, name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	*dst = append(*dst, c)
}

// SetReady flips the manual readiness gate, used to drain before shutdown.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start runs all checks immediately and then at the given interval until
// Stop is called or ctx is cancelled.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.mu.Lock()
	checks := make([]*check, 0, len(s.liveness)+len(s.readiness))
	checks = append(checks, s.liveness...)
	checks = append(checks, s.readiness...)
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		runAll := func() {
			for _, c := range checks {
				c.run(ctx)
			}
		}
		runAll()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runAll()
			}
		}
	}()
}

// Stop cancels the background check loop and waits for it to exit.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// LiveEndpoint reports 200 when all liveness checks pass, 503 otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	checks := s.liveness
	s.mu.Unlock()
	s.respond(w, checks, true)
}

// ReadyEndpoint reports 200 when the manual gate is open and all readiness
// checks pass, 503 otherwise.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	checks := s.readiness
	s.mu.Unlock()
	s.respond(w, checks, s.ready.Load())
}

func (s *Service) respond(w http.ResponseWriter, checks []*check, ok bool) {
	details := make(map[string]string, len(checks))
	for _, c := range checks {
		status := "ok"
		if !c.healthy.Load() {
			ok = false
			status = "failed"
			if p := c.lastErr.Load(); p != nil && *p != nil {
				status = (*p).Error()
			}
		}
		details[c.name] = status
	}

	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(details)
}

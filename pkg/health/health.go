// Package health serves /livez and /readyz from periodically evaluated
// probes. A probe turns unhealthy after failureThreshold consecutive
// failures and healthy again after one success.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const failureThreshold = 3

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Kind selects the endpoint a probe contributes to.
type Kind int

const (
	// Liveness probes back /livez.
	Liveness Kind = iota
	// Readiness probes back /readyz.
	Readiness
)

type probe struct {
	kind    Kind
	name    string
	timeout time.Duration
	check   Check

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Touched only by the probe's own goroutine.
	fails int
}

func (p *probe) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.check(checkCtx)
	cancel()

	if err == nil {
		p.fails = 0
		if !p.healthy.Swap(true) {
			zctx.From(ctx).Info("Probe recovered", zap.String("probe", p.name))
		}
		return
	}

	msg := err.Error()
	p.lastErr.Store(&msg)
	p.fails++
	if p.fails >= failureThreshold && p.healthy.Swap(false) {
		zctx.From(ctx).Warn("Probe failing", zap.String("probe", p.name), zap.Error(err))
	}
}

func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Service owns the probes and the manual readiness gate. The gate starts
// closed; open it with SetReady(true) once startup is complete.
type Service struct {
	ready atomic.Bool

	mu     sync.Mutex
	probes []*probe
	cancel context.CancelFunc
}

// New returns an empty Service.
func New() *Service {
	return &Service{}
}

// Register adds a probe. Probes start healthy. Register before Start.
func (s *Service) Register(kind Kind, name string, timeout time.Duration, check Check) {
	p := &probe{kind: kind, name: name, timeout: timeout, check: check}
	p.healthy.Store(true)

	s.mu.Lock()
	s.probes = append(s.probes, p)
	s.mu.Unlock()
}

// Start runs every probe immediately and then every interval until Stop
// is called or ctx is done.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	probes := slices.Clone(s.probes)
	s.mu.Unlock()

	for _, p := range probes {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
}

// Stop halts the probe goroutines. It is idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady opens or closes the readiness gate.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Service) failures(kind Kind) map[string]string {
	s.mu.Lock()
	probes := slices.Clone(s.probes)
	s.mu.Unlock()

	out := make(map[string]string)
	for _, p := range probes {
		if p.kind != kind {
			continue
		}
		if msg, failed := p.failure(); failed {
			out[p.name] = msg
		}
	}
	return out
}

// LiveEndpoint serves /livez.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, s.failures(Liveness))
}

// ReadyEndpoint serves /readyz.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := s.failures(Readiness)
	if !s.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// writeStatus writes {"status":"ok"} or {"status":"unhealthy","checks":{...}}.
func writeStatus(w http.ResponseWriter, failures map[string]string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	status := http.StatusOK
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func get(t *testing.T, endpoint http.HandlerFunc) (int, statusBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body statusBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func failing(msg string) Check {
	return func(context.Context) error { return errors.New(msg) }
}

func passing(context.Context) error { return nil }

func TestLiveEndpoint(t *testing.T) {
	s := New()
	s.Register(Liveness, "goroutines", time.Second, passing)
	s.Register(Readiness, "postgres", time.Second, failing("refused"))

	// Probes start healthy.
	code, body := get(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestProbe_Threshold(t *testing.T) {
	s := New()
	s.Register(Liveness, "db", time.Second, failing("connection refused"))
	p := s.probes[0]
	ctx := context.Background()

	for range failureThreshold - 1 {
		p.run(ctx)
	}
	code, _ := get(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "below threshold")

	p.run(ctx)
	code, body := get(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"db": "connection refused"}, body.Checks)
}

func TestProbe_Recovers(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)

	s := New()
	s.Register(Readiness, "db", time.Second, func(context.Context) error {
		if broken.Load() {
			return errors.New("down")
		}
		return nil
	})
	s.SetReady(true)
	p := s.probes[0]
	ctx := context.Background()

	for range failureThreshold {
		p.run(ctx)
	}
	code, _ := get(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	broken.Store(false)
	p.run(ctx)
	code, _ = get(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestReadyEndpoint(t *testing.T) {
	s := New()
	s.Register(Readiness, "postgres", time.Second, passing)

	code, body := get(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", body.Checks["_readiness"])

	s.SetReady(true)
	code, body = get(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	s.SetReady(false)
	code, _ = get(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestProbe_Timeout(t *testing.T) {
	s := New()
	s.Register(Readiness, "slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.SetReady(true)

	for range failureThreshold {
		s.probes[0].run(context.Background())
	}
	code, body := get(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks["slow"], "deadline exceeded")
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	s := New()
	s.Register(Liveness, "counter", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	s.Start(context.Background(), 5*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	time.Sleep(20 * time.Millisecond)
	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, PingCheck(pinger{})(ctx))
	err := PingCheck(pinger{err: errors.New("refused")})(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")

	assert.NoError(t, GoroutineCountCheck(1_000_000)(ctx))
	assert.Error(t, GoroutineCountCheck(0)(ctx))
}

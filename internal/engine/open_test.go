package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arkhound/ballast/internal/engine"
)

func newOpenTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
}

func TestOpenExecutor_RunProducesResultsAtRate(t *testing.T) {
	server := newOpenTestServer()
	defer server.Close()

	exec := engine.NewHTTPExecutor(engine.DefaultHTTPExecutorConfig())
	resultCh := make(chan engine.RequestResult, 1000)

	open := engine.NewOpenExecutor(engine.OpenConfig{
		ArrivalRate:     50,
		PreAllocatedVUs: 10,
		MaxVUs:          10,
		Scenarios:       []engine.Scenario{{Name: "s", URL: server.URL, Method: "GET", Weight: 1}},
	}, exec, resultCh)
	defer open.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	open.Run(ctx)
	close(resultCh)

	n := 0
	for range resultCh {
		n++
	}
	if n == 0 {
		t.Error("OpenExecutor produced zero results at 50/s over 200ms")
	}
}

func TestOpenExecutor_DropsWhenPoolSaturatedAndStrict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond) // slow handler to keep VUs busy
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := engine.NewHTTPExecutor(engine.DefaultHTTPExecutorConfig())
	resultCh := make(chan engine.RequestResult, 1000)

	open := engine.NewOpenExecutor(engine.OpenConfig{
		ArrivalRate:     100,
		PreAllocatedVUs: 1,
		MaxVUs:          1,
		StrictPool:      true,
		Scenarios:       []engine.Scenario{{Name: "s", URL: server.URL, Method: "GET", Weight: 1}},
	}, exec, resultCh)
	defer open.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	open.Run(ctx)
	close(resultCh)

	if open.Dropped().Load() == 0 {
		t.Error("a strict 1-VU pool at 100/s against a slow handler should drop iterations")
	}
}

func TestOpenExecutor_VUsMaxReflectsConfig(t *testing.T) {
	server := newOpenTestServer()
	defer server.Close()

	exec := engine.NewHTTPExecutor(engine.DefaultHTTPExecutorConfig())
	resultCh := make(chan engine.RequestResult, 1000)

	open := engine.NewOpenExecutor(engine.OpenConfig{
		ArrivalRate:     10,
		PreAllocatedVUs: 5,
		MaxVUs:          20,
		Scenarios:       []engine.Scenario{{Name: "s", URL: server.URL, Method: "GET", Weight: 1}},
	}, exec, resultCh)
	defer open.Stop()

	if got := open.VUsMax(); got != 20 {
		t.Errorf("VUsMax() = %d, want 20", got)
	}
}

func TestNewRampingOpenExecutor_Runs(t *testing.T) {
	server := newOpenTestServer()
	defer server.Close()

	exec := engine.NewHTTPExecutor(engine.DefaultHTTPExecutorConfig())
	resultCh := make(chan engine.RequestResult, 1000)

	ramping := engine.NewRampingOpenExecutor(engine.RampingOpenConfig{
		Stages: []engine.RampStage{
			{Duration: 100 * time.Millisecond, Target: 50},
		},
		PreAllocatedVUs: 10,
		MaxVUs:          10,
		Scenarios:       []engine.Scenario{{Name: "s", URL: server.URL, Method: "GET", Weight: 1}},
	}, exec, resultCh)
	defer ramping.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ramping.Run(ctx)
	close(resultCh)

	n := 0
	for range resultCh {
		n++
	}
	if n == 0 {
		t.Error("RampingOpenExecutor produced zero results")
	}
}

func TestNewBurstExecutor_Runs(t *testing.T) {
	server := newOpenTestServer()
	defer server.Close()

	exec := engine.NewHTTPExecutor(engine.DefaultHTTPExecutorConfig())
	resultCh := make(chan engine.RequestResult, 1000)

	burst := engine.NewBurstExecutor(engine.BurstConfig{
		Rate:  10,
		Delay: 50 * time.Millisecond,
	}, exec, resultCh)
	defer burst.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	burst.Run(ctx)
	close(resultCh)

	n := 0
	for range resultCh {
		n++
	}
	if n != 10 {
		t.Errorf("first burst window (before the next 50ms window) produced %d results, want 10", n)
	}
}

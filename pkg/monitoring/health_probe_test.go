package monitoring

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/core-tools/hsu-stackup/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logging.Logger {
	return logging.NewLogger("", logging.LogFuncs{
		Debugf: t.Logf,
		Infof:  t.Logf,
		Warnf:  t.Logf,
		Errorf: t.Logf,
	})
}

func httpProbeConfig(url string, opts ProbeRunOptions) ProbeConfig {
	return ProbeConfig{
		Type:       ProbeTypeHTTP,
		HTTP:       HTTPProbeConfig{URL: url},
		RunOptions: opts,
	}
}

func quickRunOptions() ProbeRunOptions {
	return ProbeRunOptions{
		Timeout:       time.Second,
		Interval:      10 * time.Millisecond,
		BackoffRate:   1.5,
		ReadyDeadline: 2 * time.Second,
	}
}

func TestCheck_HTTP200IsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(httpProbeConfig(server.URL+"/health", quickRunOptions()), "backend", testLogger(t))
	result := prober.Check(context.Background())

	assert.True(t, result.Healthy)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, 1, result.Attempts)
}

func TestCheck_HTTPNon200IsUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	prober := NewProber(httpProbeConfig(server.URL, quickRunOptions()), "backend", testLogger(t))
	result := prober.Check(context.Background())

	assert.False(t, result.Healthy)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
}

func TestCheck_ConnectionRefusedIsUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing is listening anymore

	prober := NewProber(httpProbeConfig(url, quickRunOptions()), "backend", testLogger(t))
	result := prober.Check(context.Background())

	assert.False(t, result.Healthy)
	assert.Contains(t, result.Message, "HTTP request failed")
}

func TestCheck_TimeoutIsUnhealthyAndBounded(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	opts := quickRunOptions()
	opts.Timeout = 50 * time.Millisecond

	prober := NewProber(httpProbeConfig(server.URL, opts), "backend", testLogger(t))

	start := time.Now()
	result := prober.Check(context.Background())
	elapsed := time.Since(start)

	assert.False(t, result.Healthy)
	assert.Less(t, elapsed, time.Second, "probe must not block past its timeout")
}

func TestCheck_CustomHeadersAreSent(t *testing.T) {
	var gotHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader.Store(r.Header.Get("X-Probe"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := httpProbeConfig(server.URL, quickRunOptions())
	config.HTTP.Headers = map[string]string{"X-Probe": "stackup"}

	prober := NewProber(config, "backend", testLogger(t))
	result := prober.Check(context.Background())

	require.True(t, result.Healthy)
	assert.Equal(t, "stackup", gotHeader.Load())
}

func TestCheck_TCPProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	prober := NewProber(ProbeConfig{
		Type:       ProbeTypeTCP,
		TCP:        TCPProbeConfig{Address: host, Port: port},
		RunOptions: quickRunOptions(),
	}, "backend", testLogger(t))

	result := prober.Check(context.Background())
	assert.True(t, result.Healthy)
}

func TestCheck_ProcessProbe(t *testing.T) {
	config := ProbeConfig{
		Type:       ProbeTypeProcess,
		RunOptions: quickRunOptions(),
	}

	prober := NewProber(config, "backend", testLogger(t))

	// Without a PID the probe cannot succeed
	result := prober.Check(context.Background())
	assert.False(t, result.Healthy)

	prober.SetProcessInfo(os.Getpid())
	result = prober.Check(context.Background())
	assert.True(t, result.Healthy)
}

func TestCheck_InvalidConfigIsUnhealthy(t *testing.T) {
	prober := NewProber(ProbeConfig{Type: "bogus", RunOptions: quickRunOptions()}, "backend", testLogger(t))
	result := prober.Check(context.Background())

	assert.False(t, result.Healthy)
	assert.Contains(t, result.Message, "Invalid probe configuration")
}

func TestWaitReady_SucceedsAfterSlowStart(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(httpProbeConfig(server.URL+"/health", quickRunOptions()), "backend", testLogger(t))
	result := prober.WaitReady(context.Background())

	assert.True(t, result.Healthy)
	assert.GreaterOrEqual(t, result.Attempts, 3)
}

func TestWaitReady_DeadlineElapsesWithoutBlocking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	opts := quickRunOptions()
	opts.ReadyDeadline = 200 * time.Millisecond

	prober := NewProber(httpProbeConfig(url, opts), "backend", testLogger(t))

	start := time.Now()
	result := prober.WaitReady(context.Background())
	elapsed := time.Since(start)

	assert.False(t, result.Healthy)
	assert.GreaterOrEqual(t, result.Attempts, 1)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWaitReady_HonoursInitialDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	opts := quickRunOptions()
	opts.InitialDelay = 100 * time.Millisecond

	prober := NewProber(httpProbeConfig(server.URL, opts), "backend", testLogger(t))

	start := time.Now()
	result := prober.WaitReady(context.Background())

	assert.True(t, result.Healthy)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitReady_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := quickRunOptions()
	opts.InitialDelay = time.Hour // cancellation must win over the delay

	prober := NewProber(httpProbeConfig(url, opts), "backend", testLogger(t))
	result := prober.WaitReady(ctx)

	assert.False(t, result.Healthy)
}

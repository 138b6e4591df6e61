package monitoring

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/core-tools/hsu-stackup/pkg/errors"
	"github.com/core-tools/hsu-stackup/pkg/logging"
	"github.com/core-tools/hsu-stackup/pkg/process"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type ProbeType string

const (
	ProbeTypeHTTP    ProbeType = "http"
	ProbeTypeTCP     ProbeType = "tcp"
	ProbeTypeGRPC    ProbeType = "grpc"
	ProbeTypeProcess ProbeType = "process"
)

type HTTPProbeConfig struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

type TCPProbeConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

type GRPCProbeConfig struct {
	Address string `yaml:"address"`
	Service string `yaml:"service,omitempty"`
}

type ProbeConfig struct {
	Type ProbeType `yaml:"type"`

	// HTTP probe
	HTTP HTTPProbeConfig `yaml:"http,omitempty"`

	// TCP probe
	TCP TCPProbeConfig `yaml:"tcp,omitempty"`

	// gRPC probe
	GRPC GRPCProbeConfig `yaml:"grpc,omitempty"`

	// Run options
	RunOptions ProbeRunOptions `yaml:"run_options,omitempty"`
}

// ProbeRunOptions controls single-probe timeouts and the readiness wait.
// Readiness uses bounded polling with exponential backoff up to the deadline
// instead of a single fixed warm-up sleep.
type ProbeRunOptions struct {
	Timeout       time.Duration `yaml:"timeout,omitempty"`        // per-attempt bound
	Interval      time.Duration `yaml:"interval,omitempty"`       // first retry delay
	BackoffRate   float64       `yaml:"backoff_rate,omitempty"`   // retry delay multiplier
	InitialDelay  time.Duration `yaml:"initial_delay,omitempty"`  // delay before first attempt
	ReadyDeadline time.Duration `yaml:"ready_deadline,omitempty"` // overall readiness bound
}

// ProbeResult is the ephemeral outcome of one probe or one readiness wait.
// It is reported, never retained.
type ProbeResult struct {
	Healthy    bool
	StatusCode int
	Message    string
	Attempts   int
	Elapsed    time.Duration
}

type Prober struct {
	config ProbeConfig
	id     string
	pid    int
	logger logging.Logger
}

func NewProber(config ProbeConfig, id string, logger logging.Logger) *Prober {
	return &Prober{
		config: config,
		id:     id,
		logger: logger,
	}
}

// SetProcessInfo supplies the PID used by process-type probes. It is known
// only after launch, which is why it is not part of the configuration.
func (p *Prober) SetProcessInfo(pid int) {
	p.pid = pid
}

// Check performs a single bounded-timeout probe.
func (p *Prober) Check(ctx context.Context) ProbeResult {
	start := time.Now()

	result := ProbeResult{Attempts: 1}

	if err := ValidateProbeConfig(p.config); err != nil {
		result.Message = fmt.Sprintf("Invalid probe configuration: %v", err)
		result.Elapsed = time.Since(start)
		return result
	}

	p.logger.Debugf("Performing health probe, id: %s, type: %s", p.id, p.config.Type)

	var healthy bool
	var message string
	var statusCode int

	switch p.config.Type {
	case ProbeTypeHTTP:
		healthy, statusCode, message = p.checkHTTP(ctx)
	case ProbeTypeTCP:
		healthy, message = p.checkTCP(ctx)
	case ProbeTypeGRPC:
		healthy, message = p.checkGRPC(ctx)
	case ProbeTypeProcess:
		healthy, message = p.checkProcess()
	default:
		message = "Unknown probe type: " + string(p.config.Type)
		p.logger.Errorf("Unknown probe type, id: %s, type: %s", p.id, p.config.Type)
	}

	result.Healthy = healthy
	result.StatusCode = statusCode
	result.Message = message
	result.Elapsed = time.Since(start)
	return result
}

// WaitReady polls the probe with exponential backoff until it reports
// healthy or the readiness deadline elapses. The last result is returned
// either way; the caller decides whether failure is fatal or advisory.
func (p *Prober) WaitReady(ctx context.Context) ProbeResult {
	opts := p.config.RunOptions

	start := time.Now()
	deadline := start.Add(opts.ReadyDeadline)

	p.logger.Infof("Waiting for readiness, id: %s, type: %s, deadline: %v, initial delay: %v",
		p.id, p.config.Type, opts.ReadyDeadline, opts.InitialDelay)

	if opts.InitialDelay > 0 {
		if !sleepUntil(ctx, opts.InitialDelay) {
			return ProbeResult{Message: "readiness wait cancelled during initial delay", Elapsed: time.Since(start)}
		}
	}

	interval := opts.Interval
	attempts := 0
	var last ProbeResult

	for {
		last = p.Check(ctx)
		attempts++
		last.Attempts = attempts
		last.Elapsed = time.Since(start)

		if last.Healthy {
			p.logger.Infof("Service is ready, id: %s, attempts: %d, elapsed: %v", p.id, attempts, last.Elapsed)
			return last
		}

		p.logger.Debugf("Service not ready yet, id: %s, attempt: %d, message: %s", p.id, attempts, last.Message)

		if ctx.Err() != nil || !time.Now().Add(interval).Before(deadline) {
			p.logger.Warnf("Readiness deadline elapsed, id: %s, attempts: %d, last message: %s",
				p.id, attempts, last.Message)
			return last
		}

		if !sleepUntil(ctx, interval) {
			last.Message = "readiness wait cancelled"
			return last
		}

		if opts.BackoffRate > 1.0 {
			interval = time.Duration(float64(interval) * opts.BackoffRate)
		}
	}
}

// sleepUntil waits for d, returning false if the context is cancelled first.
func sleepUntil(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Prober) checkHTTP(ctx context.Context) (bool, int, string) {
	p.logger.Debugf("Performing HTTP probe, id: %s, url: %s", p.id, p.config.HTTP.URL)

	client := &http.Client{
		Timeout: p.config.RunOptions.Timeout,
	}

	method := p.config.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, p.config.HTTP.URL, nil)
	if err != nil {
		return false, 0, fmt.Sprintf("Failed to create HTTP request: %v", err)
	}

	for key, value := range p.config.HTTP.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, 0, fmt.Sprintf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	// 2xx status codes are healthy
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, resp.StatusCode, fmt.Sprintf("HTTP probe passed: %s", resp.Status)
	}

	return false, resp.StatusCode, fmt.Sprintf("HTTP probe failed: %s", resp.Status)
}

func (p *Prober) checkTCP(ctx context.Context) (bool, string) {
	address := fmt.Sprintf("%s:%d", p.config.TCP.Address, p.config.TCP.Port)

	p.logger.Debugf("Performing TCP probe, id: %s, address: %s", p.id, address)

	dialer := &net.Dialer{Timeout: p.config.RunOptions.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return false, fmt.Sprintf("TCP connection failed: %v", err)
	}
	defer conn.Close()

	return true, fmt.Sprintf("TCP connection successful to %s", address)
}

func (p *Prober) checkGRPC(ctx context.Context) (bool, string) {
	address := p.config.GRPC.Address
	service := p.config.GRPC.Service

	p.logger.Debugf("Performing gRPC health probe, id: %s, address: %s, service: %s", p.id, address, service)

	checkCtx, cancel := context.WithTimeout(ctx, p.config.RunOptions.Timeout)
	defer cancel()

	conn, err := grpc.DialContext(checkCtx, address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return false, fmt.Sprintf("gRPC connection failed: %v", err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(checkCtx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return false, fmt.Sprintf("gRPC health check failed: %v", err)
	}

	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return false, fmt.Sprintf("gRPC health status: %s", resp.Status)
	}

	return true, fmt.Sprintf("gRPC health check passed for %s", address)
}

func (p *Prober) checkProcess() (bool, string) {
	if p.pid <= 0 {
		return false, "Process probe has no PID (service not launched?)"
	}

	alive, err := process.IsAlive(p.pid)
	if err != nil {
		return false, fmt.Sprintf("Process liveness check failed: %v", err)
	}
	if !alive {
		return false, fmt.Sprintf("Process not running: PID %d", p.pid)
	}
	return true, fmt.Sprintf("Process is running: PID %d", p.pid)
}

// EnsureValid validates the probe configuration up front so misconfiguration
// is a launch-time error rather than a misleading probe failure.
func (p *Prober) EnsureValid() error {
	if err := ValidateProbeConfig(p.config); err != nil {
		return errors.NewValidationError("invalid probe configuration", err).WithContext("id", p.id)
	}
	return nil
}

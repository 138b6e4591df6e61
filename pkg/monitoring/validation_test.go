package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validRunOptions() ProbeRunOptions {
	return ProbeRunOptions{
		Timeout:       5 * time.Second,
		Interval:      time.Second,
		BackoffRate:   1.5,
		ReadyDeadline: 8 * time.Second,
	}
}

func TestValidateProbeConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  ProbeConfig
		wantErr bool
	}{
		{
			name: "valid HTTP probe",
			config: ProbeConfig{
				Type:       ProbeTypeHTTP,
				HTTP:       HTTPProbeConfig{URL: "http://localhost:8000/health"},
				RunOptions: validRunOptions(),
			},
			wantErr: false,
		},
		{
			name: "HTTP probe without URL",
			config: ProbeConfig{
				Type:       ProbeTypeHTTP,
				RunOptions: validRunOptions(),
			},
			wantErr: true,
		},
		{
			name: "HTTP probe with bad scheme",
			config: ProbeConfig{
				Type:       ProbeTypeHTTP,
				HTTP:       HTTPProbeConfig{URL: "ftp://localhost/health"},
				RunOptions: validRunOptions(),
			},
			wantErr: true,
		},
		{
			name: "valid TCP probe",
			config: ProbeConfig{
				Type:       ProbeTypeTCP,
				TCP:        TCPProbeConfig{Address: "localhost", Port: 8501},
				RunOptions: validRunOptions(),
			},
			wantErr: false,
		},
		{
			name: "TCP probe with invalid port",
			config: ProbeConfig{
				Type:       ProbeTypeTCP,
				TCP:        TCPProbeConfig{Address: "localhost", Port: 70000},
				RunOptions: validRunOptions(),
			},
			wantErr: true,
		},
		{
			name: "valid gRPC probe",
			config: ProbeConfig{
				Type:       ProbeTypeGRPC,
				GRPC:       GRPCProbeConfig{Address: "localhost:50055"},
				RunOptions: validRunOptions(),
			},
			wantErr: false,
		},
		{
			name: "gRPC probe without port",
			config: ProbeConfig{
				Type:       ProbeTypeGRPC,
				GRPC:       GRPCProbeConfig{Address: "localhost"},
				RunOptions: validRunOptions(),
			},
			wantErr: true,
		},
		{
			name: "process probe needs no extra configuration",
			config: ProbeConfig{
				Type:       ProbeTypeProcess,
				RunOptions: validRunOptions(),
			},
			wantErr: false,
		},
		{
			name: "unsupported type",
			config: ProbeConfig{
				Type:       "carrier-pigeon",
				RunOptions: validRunOptions(),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProbeConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProbeRunOptions(t *testing.T) {
	assert.NoError(t, ValidateProbeRunOptions(validRunOptions()))

	zeroTimeout := validRunOptions()
	zeroTimeout.Timeout = 0
	assert.Error(t, ValidateProbeRunOptions(zeroTimeout))

	zeroInterval := validRunOptions()
	zeroInterval.Interval = 0
	assert.Error(t, ValidateProbeRunOptions(zeroInterval))

	badBackoff := validRunOptions()
	badBackoff.BackoffRate = 0.5
	assert.Error(t, ValidateProbeRunOptions(badBackoff))

	noBackoff := validRunOptions()
	noBackoff.BackoffRate = 0
	assert.NoError(t, ValidateProbeRunOptions(noBackoff), "zero backoff means constant interval")

	negativeDelay := validRunOptions()
	negativeDelay.InitialDelay = -time.Second
	assert.Error(t, ValidateProbeRunOptions(negativeDelay))
}

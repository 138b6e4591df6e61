package stackup

import (
	"testing"
	"time"

	"github.com/core-tools/hsu-stackup/pkg/monitoring"
	"github.com/core-tools/hsu-stackup/pkg/preconditions"
	"github.com/core-tools/hsu-stackup/pkg/process"

	"github.com/stretchr/testify/assert"
)

func TestValidateServiceID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "backend", wantErr: false},
		{name: "with hyphen and underscore", id: "legal-tech_frontend", wantErr: false},
		{name: "digits", id: "service8000", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "spaces", id: "back end", wantErr: true},
		{name: "path separator", id: "back/end", wantErr: true},
		{name: "too long", id: string(make([]byte, 65)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(8000))
	assert.NoError(t, ValidatePort(1))
	assert.NoError(t, ValidatePort(65535))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(-1))
	assert.Error(t, ValidatePort(65536))
}

func TestValidateNetworkAddress(t *testing.T) {
	assert.NoError(t, ValidateNetworkAddress("localhost:8501"))
	assert.NoError(t, ValidateNetworkAddress("0.0.0.0:8000"))
	assert.Error(t, ValidateNetworkAddress(""))
	assert.Error(t, ValidateNetworkAddress("localhost"))
	assert.Error(t, ValidateNetworkAddress(":8000"))
	assert.Error(t, ValidateNetworkAddress("localhost:http"))
	assert.Error(t, ValidateNetworkAddress("localhost:99999"))
}

func validServiceConfig(id string) ServiceConfig {
	return ServiceConfig{
		ID: id,
		Execution: process.ExecutionConfig{
			ExecutablePath: "/opt/pipeline/venv/bin/uvicorn",
		},
		Probe: monitoring.ProbeConfig{
			Type: monitoring.ProbeTypeHTTP,
			HTTP: monitoring.HTTPProbeConfig{URL: "http://localhost:8000/health"},
			RunOptions: monitoring.ProbeRunOptions{
				Timeout:  5 * time.Second,
				Interval: time.Second,
			},
		},
	}
}

func TestValidateConfig_DuplicateServiceIDs(t *testing.T) {
	config := &StackConfig{
		Stack:    StackOptions{EnvironmentDir: "/opt/pipeline/venv"},
		Services: []ServiceConfig{validServiceConfig("backend"), validServiceConfig("backend")},
	}

	err := ValidateConfig(config)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateConfig_NoServices(t *testing.T) {
	config := &StackConfig{Stack: StackOptions{EnvironmentDir: "/opt/pipeline/venv"}}
	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfig_MissingEnvironmentDir(t *testing.T) {
	config := &StackConfig{Services: []ServiceConfig{validServiceConfig("backend")}}
	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfig_InvalidLogLevel(t *testing.T) {
	config := &StackConfig{
		Stack:    StackOptions{EnvironmentDir: "/opt/pipeline/venv", LogLevel: "verbose"},
		Services: []ServiceConfig{validServiceConfig("backend")},
	}
	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfig_DependencyRequiresPin(t *testing.T) {
	service := validServiceConfig("frontend")
	service.Dependency = &preconditions.DependencyConfig{Module: "streamlit"}

	config := &StackConfig{
		Stack:    StackOptions{EnvironmentDir: "/opt/pipeline/venv"},
		Services: []ServiceConfig{service},
	}

	err := ValidateConfig(config)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pinned version")
}

func TestValidateConfig_EntryPointRequiresPath(t *testing.T) {
	service := validServiceConfig("frontend")
	service.EntryPoint = &preconditions.EntryPointConfig{Title: "Pipeline"}

	config := &StackConfig{
		Stack:    StackOptions{EnvironmentDir: "/opt/pipeline/venv"},
		Services: []ServiceConfig{service},
	}

	assert.Error(t, ValidateConfig(config))
}

func TestValidateConfig_OpenURLSchemeCheck(t *testing.T) {
	service := validServiceConfig("frontend")
	service.OpenURL = "localhost:8501"

	config := &StackConfig{
		Stack:    StackOptions{EnvironmentDir: "/opt/pipeline/venv"},
		Services: []ServiceConfig{service},
	}

	assert.Error(t, ValidateConfig(config))

	service.OpenURL = "http://localhost:8501"
	config.Services = []ServiceConfig{service}
	assert.NoError(t, ValidateConfig(config))
}

package preconditions

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryPoint_PrimaryFilePresent(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(primary, []byte("import streamlit\n"), 0644))

	ep := &EntryPoint{Config: EntryPointConfig{Path: primary}}

	err := Ensure(context.Background(), ep, testLogger(t))

	require.NoError(t, err)
	assert.Equal(t, primary, ep.EffectivePath())
	assert.False(t, ep.UsingFallback())
}

func TestEntryPoint_MissingPrimaryGetsFallback(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "app.py")

	ep := &EntryPoint{Config: EntryPointConfig{
		Path:        primary,
		Title:       "LegalTech Pipeline",
		BackendURL:  "http://localhost:8000",
		FrontendURL: "http://localhost:8501",
	}}

	err := Ensure(context.Background(), ep, testLogger(t))
	require.NoError(t, err)

	assert.True(t, ep.UsingFallback())
	fallback := ep.EffectivePath()
	assert.NotEqual(t, primary, fallback)

	// The generated file must exist on disk after the step completes
	data, err := os.ReadFile(fallback)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "import streamlit")
	assert.Contains(t, content, "LegalTech Pipeline")
	assert.Contains(t, content, "http://localhost:8000")
	assert.Contains(t, content, "http://localhost:8501")
}

func TestEntryPoint_ExplicitFallbackPath(t *testing.T) {
	dir := t.TempDir()

	ep := &EntryPoint{Config: EntryPointConfig{
		Path:         filepath.Join(dir, "app.py"),
		FallbackPath: filepath.Join(dir, "placeholder.py"),
	}}

	require.NoError(t, Ensure(context.Background(), ep, testLogger(t)))

	assert.Equal(t, filepath.Join(dir, "placeholder.py"), ep.EffectivePath())
	_, err := os.Stat(filepath.Join(dir, "placeholder.py"))
	assert.NoError(t, err)
}

func TestEntryPoint_EmptyPathIsInvalid(t *testing.T) {
	ep := &EntryPoint{}

	err := ep.Verify(context.Background())
	assert.Error(t, err)
}
